package resolver

import (
	"fmt"
	"strings"

	"pagepilot/internal/domain"
)

// Keeps prompts bounded on element-heavy pages.
const maxPromptElements = 25

func buildSystemPrompt(page domain.PageContext) string {
	var sb strings.Builder
	sb.WriteString("You translate spoken browser commands into one structured action.\n")
	sb.WriteString("Respond with ONLY a JSON object, no prose, in this shape:\n")
	sb.WriteString(`{"action":"<verb>","target":"<element>","parameters":{},"confidence":0.0}` + "\n\n")
	sb.WriteString("Allowed verbs: " + strings.Join(domain.KnownActions(), ", ") + ".\n")
	sb.WriteString("If the command maps to none of them, use \"unknown\" with a low confidence.\n")
	sb.WriteString("Parameter keys by verb: scroll=direction, search=query, navigate=destination, fill=field+value.\n")

	if page.URL != "" {
		sb.WriteString("\nCurrent page: " + page.URL + "\n")
	}
	if len(page.Elements) > 0 {
		sb.WriteString("Interactive elements on the page:\n")
		for i, el := range page.Elements {
			if i >= maxPromptElements {
				sb.WriteString(fmt.Sprintf("... and %d more\n", len(page.Elements)-maxPromptElements))
				break
			}
			sb.WriteString("- " + describeElement(el) + "\n")
		}
		sb.WriteString("Prefer a target matching one of these elements.\n")
	}

	return sb.String()
}

func describeElement(el domain.ElementDescriptor) string {
	parts := make([]string, 0, 4)
	if el.Tag != "" {
		parts = append(parts, el.Tag)
	}
	if el.Role != "" {
		parts = append(parts, "role="+el.Role)
	}
	if el.Text != "" {
		parts = append(parts, fmt.Sprintf("%q", el.Text))
	}
	if el.Selector != "" {
		parts = append(parts, "selector="+el.Selector)
	}
	return strings.Join(parts, " ")
}

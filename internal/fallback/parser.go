package fallback

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pagepilot/internal/domain"
)

// Parser maps raw speech text to an Intent with ordered pattern rules and no
// external dependencies. It is the reliability floor of the resolution
// pipeline: it never fails, the terminal case is an "unknown" intent.
type Parser struct {
	confidence float64
}

const DefaultConfidence = 0.4

func NewParser(confidence float64) *Parser {
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultConfidence
	}
	return &Parser{confidence: confidence}
}

type rule struct {
	name  string
	match func(text string) (domain.Intent, bool)
}

// Rule order is the priority policy: specific phrasings are checked before
// generic keyword rules, so "fill email with x" never lands on the click
// rule. The table is append-only; inserting above an existing rule requires
// re-verifying the precedence tests.
var rules = []rule{
	{name: "fill", match: matchFill},
	{name: "search", match: matchSearch},
	{name: "back", match: matchBack},
	{name: "forward", match: matchForward},
	{name: "refresh", match: matchRefresh},
	{name: "navigate", match: matchNavigate},
	{name: "scroll", match: matchScroll},
	{name: "submit", match: matchSubmit},
	{name: "read", match: matchRead},
	{name: "click", match: matchClick},
}

// RuleNames returns the rule table in priority order.
func RuleNames() []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.name)
	}
	return out
}

func (p *Parser) Parse(text string) domain.Intent {
	t := Fold(text)
	if t == "" {
		return unknownIntent(text)
	}
	for _, r := range rules {
		if intent, ok := r.match(t); ok {
			intent.Confidence = p.confidence
			intent.ProviderUsed = domain.ProvenanceFallback
			intent.RawText = text
			return intent
		}
	}
	return unknownIntent(text)
}

func unknownIntent(text string) domain.Intent {
	return domain.Intent{
		Action:       domain.ActionUnknown,
		Confidence:   0,
		ProviderUsed: domain.ProvenanceFallback,
		RawText:      text,
	}
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases, trims, and strips combining accent marks so matching is
// case and accent insensitive.
func Fold(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(foldChain, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

func matchFill(t string) (domain.Intent, bool) {
	rest, ok := afterAnyPrefix(t, "fill in ", "fill out ", "fill ", "enter ", "type ")
	if !ok {
		return domain.Intent{}, false
	}
	field, value, hasValue := cutAround(rest, " with ")
	if !hasValue {
		// "enter x"/"type x" without a target field is too ambiguous for a
		// deterministic rule; only bare "fill <field>" is accepted.
		if !strings.HasPrefix(t, "fill") {
			return domain.Intent{}, false
		}
		field = rest
	}
	field = stripArticles(field)
	field = strings.TrimSuffix(field, " field")
	field = strings.TrimSuffix(field, " box")
	intent := domain.Intent{
		Action:     domain.ActionFill,
		Target:     field,
		Parameters: map[string]string{"field": field},
	}
	if hasValue {
		intent.Parameters["value"] = strings.TrimSpace(value)
	}
	return intent, true
}

func matchSearch(t string) (domain.Intent, bool) {
	query, ok := afterAnyPrefix(t, "search for ", "search ", "look up ", "look for ", "google ", "find ")
	if !ok {
		return domain.Intent{}, false
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Intent{}, false
	}
	return domain.Intent{
		Action:     domain.ActionSearch,
		Parameters: map[string]string{"query": query},
	}, true
}

func matchBack(t string) (domain.Intent, bool) {
	if t == "back" || strings.Contains(t, "go back") || strings.Contains(t, "previous page") {
		return domain.Intent{Action: domain.ActionBack}, true
	}
	return domain.Intent{}, false
}

func matchForward(t string) (domain.Intent, bool) {
	if t == "forward" || strings.Contains(t, "go forward") || strings.Contains(t, "next page") {
		return domain.Intent{Action: domain.ActionForward}, true
	}
	return domain.Intent{}, false
}

func matchRefresh(t string) (domain.Intent, bool) {
	if hasWord(t, "refresh") || hasWord(t, "reload") {
		return domain.Intent{Action: domain.ActionRefresh}, true
	}
	return domain.Intent{}, false
}

func matchNavigate(t string) (domain.Intent, bool) {
	dest, ok := afterAnyPrefix(t, "go to ", "navigate to ", "open ", "visit ")
	if !ok {
		return domain.Intent{}, false
	}
	dest = stripArticles(dest)
	if dest == "" {
		return domain.Intent{}, false
	}
	return domain.Intent{
		Action:     domain.ActionNavigate,
		Parameters: map[string]string{"destination": dest},
	}, true
}

var scrollDirections = []struct {
	hint      string
	direction string
}{
	{"to the top", "top"},
	{"to the bottom", "bottom"},
	{"top", "top"},
	{"bottom", "bottom"},
	{"up", "up"},
	{"down", "down"},
	{"left", "left"},
	{"right", "right"},
}

func matchScroll(t string) (domain.Intent, bool) {
	if !hasWord(t, "scroll") && !strings.Contains(t, "page down") && !strings.Contains(t, "page up") {
		return domain.Intent{}, false
	}
	direction := "down"
	for _, d := range scrollDirections {
		if strings.Contains(t, d.hint) {
			direction = d.direction
			break
		}
	}
	return domain.Intent{
		Action:     domain.ActionScroll,
		Parameters: map[string]string{"direction": direction},
	}, true
}

func matchSubmit(t string) (domain.Intent, bool) {
	if hasWord(t, "submit") || strings.Contains(t, "send the form") {
		return domain.Intent{Action: domain.ActionSubmit}, true
	}
	return domain.Intent{}, false
}

func matchRead(t string) (domain.Intent, bool) {
	if !hasWord(t, "read") {
		return domain.Intent{}, false
	}
	target := stripArticles(afterWord(t, "read"))
	intent := domain.Intent{Action: domain.ActionRead}
	if target != "" && target != "this page" && target != "page" && target != "aloud" && target != "it" {
		intent.Target = target
	}
	return intent, true
}

func matchClick(t string) (domain.Intent, bool) {
	for _, kw := range []string{"click", "press", "tap", "select", "choose"} {
		if hasWord(t, kw) {
			target := stripArticles(afterWord(t, kw))
			target = strings.TrimSuffix(target, " button")
			return domain.Intent{Action: domain.ActionClick, Target: target}, true
		}
	}
	return domain.Intent{}, false
}

// helpers

func afterAnyPrefix(t string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(t, p) {
			return strings.TrimSpace(strings.TrimPrefix(t, p)), true
		}
	}
	return "", false
}

func cutAround(s, sep string) (before, after string, found bool) {
	before, after, found = strings.Cut(s, sep)
	return strings.TrimSpace(before), strings.TrimSpace(after), found
}

func stripArticles(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed, ok := afterAnyPrefix(s, "on ", "the ", "a ", "an ")
		if !ok {
			return s
		}
		s = trimmed
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// hasWord reports whether word occurs in t bounded by non-word bytes, so
// "read" does not match inside "already".
func hasWord(t, word string) bool {
	return wordIndex(t, word) >= 0
}

func wordIndex(t, word string) int {
	from := 0
	for {
		i := strings.Index(t[from:], word)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(word)
		leftOK := start == 0 || !isWordByte(t[start-1])
		rightOK := end == len(t) || !isWordByte(t[end])
		if leftOK && rightOK {
			return start
		}
		from = end
	}
}

func afterWord(t, word string) string {
	i := wordIndex(t, word)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(t[i+len(word):])
}

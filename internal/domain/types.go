package domain

// Action verbs the command executor understands. The set is closed: anything
// a provider returns outside this list is coerced to ActionUnknown during
// normalization, never rejected.
const (
	ActionScroll   = "scroll"
	ActionClick    = "click"
	ActionFill     = "fill"
	ActionSearch   = "search"
	ActionNavigate = "navigate"
	ActionBack     = "back"
	ActionForward  = "forward"
	ActionRefresh  = "refresh"
	ActionSubmit   = "submit"
	ActionRead     = "read"
	ActionUnknown  = "unknown"
)

// Resolution stages, recorded on every Intent as ProviderUsed.
const (
	ProvenancePrimary   = "primary"
	ProvenanceSecondary = "secondary"
	ProvenanceFallback  = "fallback"
)

var knownActions = map[string]struct{}{
	ActionScroll:   {},
	ActionClick:    {},
	ActionFill:     {},
	ActionSearch:   {},
	ActionNavigate: {},
	ActionBack:     {},
	ActionForward:  {},
	ActionRefresh:  {},
	ActionSubmit:   {},
	ActionRead:     {},
	ActionUnknown:  {},
}

func IsKnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

// KnownActions returns the executable verbs, excluding ActionUnknown.
func KnownActions() []string {
	return []string{
		ActionScroll, ActionClick, ActionFill, ActionSearch, ActionNavigate,
		ActionBack, ActionForward, ActionRefresh, ActionSubmit, ActionRead,
	}
}

type Intent struct {
	Action       string            `json:"action"`
	Target       string            `json:"target,omitempty"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	Confidence   float64           `json:"confidence"`
	ProviderUsed string            `json:"provider_used"`
	RawText      string            `json:"raw_text"`
}

type ElementDescriptor struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text,omitempty"`
	Role       string            `json:"role,omitempty"`
	Selector   string            `json:"selector,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PageContext is read-only input from the browser extension. The resolver
// uses it to enrich prompts and matching; it is never persisted or mutated.
type PageContext struct {
	SessionID string              `json:"session_id,omitempty"`
	URL       string              `json:"url,omitempty"`
	Elements  []ElementDescriptor `json:"elements,omitempty"`
}

// HTTP payloads

type InterpretRequest struct {
	Text    string      `json:"text"`
	Context PageContext `json:"context"`
}

type InterpretResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id,omitempty"`
	Intent    Intent `json:"intent"`
}

type ContextUpdate struct {
	SessionID      string              `json:"session_id"`
	ContextVersion int64               `json:"context_version,omitempty"`
	URL            string              `json:"url,omitempty"`
	Elements       []ElementDescriptor `json:"elements,omitempty"`
}

// Provider-neutral completion envelope.

type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type CompletionResponse struct {
	Content string
}

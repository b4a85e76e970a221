package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pagepilot/internal/domain"
	"pagepilot/internal/fallback"
)

// ErrUnusable means structured decode and keyword extraction both failed;
// the resolver treats it like a provider error and moves to the next stage.
var ErrUnusable = errors.New("no decodable intent or action keyword in response")

type Config struct {
	// Confidence assigned when the provider omits one.
	AIDefaultConfidence       float64
	FallbackDefaultConfidence float64
}

const (
	DefaultAIConfidence       = 0.8
	DefaultFallbackConfidence = 0.4
)

type Normalizer struct {
	aiDefault       float64
	fallbackDefault float64
}

func New(cfg Config) *Normalizer {
	n := &Normalizer{
		aiDefault:       cfg.AIDefaultConfidence,
		fallbackDefault: cfg.FallbackDefaultConfidence,
	}
	if n.aiDefault <= 0 || n.aiDefault > 1 {
		n.aiDefault = DefaultAIConfidence
	}
	if n.fallbackDefault <= 0 || n.fallbackDefault > 1 {
		n.fallbackDefault = DefaultFallbackConfidence
	}
	return n
}

// Normalize reshapes a provider's raw text into a canonical Intent. Decode
// failures get one softer recovery pass (action keyword scan) before the
// attempt is declared unusable. Unrecognized verbs coerce to unknown rather
// than erroring: the pipeline favors returning something over failing.
func (n *Normalizer) Normalize(raw, provenance string) (domain.Intent, error) {
	intent, ok := decodeIntent(raw)
	if !ok {
		intent, ok = extractByKeyword(raw)
	}
	if !ok {
		return domain.Intent{}, fmt.Errorf("normalize %s response: %w", provenance, ErrUnusable)
	}

	if !domain.IsKnownAction(intent.Action) {
		intent.Action = domain.ActionUnknown
	}
	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}
	if intent.Confidence == 0 && intent.Action != domain.ActionUnknown {
		intent.Confidence = n.defaultConfidence(provenance)
	}
	intent.ProviderUsed = provenance
	return intent, nil
}

func (n *Normalizer) defaultConfidence(provenance string) float64 {
	if provenance == domain.ProvenanceFallback {
		return n.fallbackDefault
	}
	return n.aiDefault
}

type wireIntent struct {
	Action     string         `json:"action"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters"`
	Confidence *float64       `json:"confidence"`
}

func decodeIntent(raw string) (domain.Intent, bool) {
	body := extractJSONObject(raw)
	if body == "" {
		return domain.Intent{}, false
	}

	var wire wireIntent
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return domain.Intent{}, false
	}
	action := strings.ToLower(strings.TrimSpace(wire.Action))
	if action == "" {
		return domain.Intent{}, false
	}

	intent := domain.Intent{
		Action: action,
		Target: strings.TrimSpace(wire.Target),
	}
	if len(wire.Parameters) > 0 {
		intent.Parameters = make(map[string]string, len(wire.Parameters))
		for k, v := range wire.Parameters {
			intent.Parameters[k] = stringifyParam(v)
		}
	}
	if wire.Confidence != nil {
		intent.Confidence = *wire.Confidence
	}
	return intent, true
}

// extractJSONObject tolerates prose and markdown fences around the payload:
// it returns the outermost {...} span, or "" when none exists.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func stringifyParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		buf, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(buf)
	}
}

// extractByKeyword scans the raw text for a known action verb; the earliest
// occurrence wins. Recovers responses like "action: click, sorry for the
// malformed json".
func extractByKeyword(raw string) (domain.Intent, bool) {
	t := fallback.Fold(raw)
	if t == "" {
		return domain.Intent{}, false
	}

	best := ""
	bestIdx := -1
	for _, action := range domain.KnownActions() {
		idx := strings.Index(t, action)
		for idx >= 0 {
			if isWordBounded(t, idx, len(action)) {
				if bestIdx < 0 || idx < bestIdx {
					best = action
					bestIdx = idx
				}
				break
			}
			next := strings.Index(t[idx+1:], action)
			if next < 0 {
				break
			}
			idx = idx + 1 + next
		}
	}
	if best == "" {
		return domain.Intent{}, false
	}

	intent := domain.Intent{Action: best}
	if best == domain.ActionScroll {
		for _, dir := range []string{"top", "bottom", "up", "down", "left", "right"} {
			if strings.Contains(t, dir) {
				intent.Parameters = map[string]string{"direction": dir}
				break
			}
		}
	}
	return intent, true
}

func isWordBounded(t string, start, length int) bool {
	end := start + length
	leftOK := start == 0 || !isWordByte(t[start-1])
	rightOK := end == len(t) || !isWordByte(t[end])
	return leftOK && rightOK
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

package normalize

import (
	"errors"
	"testing"

	"pagepilot/internal/domain"
)

func TestNormalizeStructuredResponse(t *testing.T) {
	n := New(Config{})
	got, err := n.Normalize(`{"action":"click","target":"login button","confidence":0.93}`, domain.ProvenancePrimary)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Action != domain.ActionClick {
		t.Fatalf("action=%s, want click", got.Action)
	}
	if got.Target != "login button" {
		t.Fatalf("target=%q", got.Target)
	}
	if got.Confidence != 0.93 {
		t.Fatalf("confidence=%.2f, want 0.93", got.Confidence)
	}
	if got.ProviderUsed != domain.ProvenancePrimary {
		t.Fatalf("provider_used=%s, want primary", got.ProviderUsed)
	}
}

func TestNormalizeFencedAndWrappedJSON(t *testing.T) {
	n := New(Config{})
	tests := []struct {
		name string
		raw  string
	}{
		{name: "markdown fence", raw: "```json\n{\"action\":\"scroll\",\"parameters\":{\"direction\":\"down\"}}\n```"},
		{name: "prose around json", raw: "Sure! Here is the command: {\"action\":\"scroll\",\"parameters\":{\"direction\":\"down\"}} Hope that helps."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw, domain.ProvenancePrimary)
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got.Action != domain.ActionScroll || got.Parameters["direction"] != "down" {
				t.Fatalf("got %+v, want scroll down", got)
			}
		})
	}
}

func TestNormalizeKeywordRecovery(t *testing.T) {
	n := New(Config{})
	got, err := n.Normalize("action: click, sorry for the malformed json", domain.ProvenancePrimary)
	if err != nil {
		t.Fatalf("keyword recovery failed: %v", err)
	}
	if got.Action != domain.ActionClick {
		t.Fatalf("action=%s, want click", got.Action)
	}
	if got.Confidence != DefaultAIConfidence {
		t.Fatalf("confidence=%.2f, want %.2f", got.Confidence, DefaultAIConfidence)
	}
}

func TestNormalizeUnusable(t *testing.T) {
	n := New(Config{})
	_, err := n.Normalize("I am not sure what you mean by that.", domain.ProvenanceSecondary)
	if !errors.Is(err, ErrUnusable) {
		t.Fatalf("err=%v, want ErrUnusable", err)
	}
}

func TestNormalizeCoercesUnknownVerb(t *testing.T) {
	n := New(Config{})
	got, err := n.Normalize(`{"action":"teleport","confidence":0.9}`, domain.ProvenancePrimary)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Action != domain.ActionUnknown {
		t.Fatalf("action=%s, want unknown", got.Action)
	}
}

func TestNormalizeClampsConfidence(t *testing.T) {
	n := New(Config{})
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "above one", raw: `{"action":"click","confidence":3.5}`, want: 1},
		{name: "below zero", raw: `{"action":"click","confidence":-0.2}`, want: DefaultAIConfidence},
		{name: "missing", raw: `{"action":"click"}`, want: DefaultAIConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw, domain.ProvenancePrimary)
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got.Confidence != tt.want {
				t.Fatalf("confidence=%.2f, want %.2f", got.Confidence, tt.want)
			}
		})
	}
}

func TestNormalizeConfigurableDefaults(t *testing.T) {
	n := New(Config{AIDefaultConfidence: 0.6, FallbackDefaultConfidence: 0.3})
	ai, err := n.Normalize(`{"action":"click"}`, domain.ProvenanceSecondary)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if ai.Confidence != 0.6 {
		t.Fatalf("ai confidence=%.2f, want 0.6", ai.Confidence)
	}
	fb, err := n.Normalize(`{"action":"click"}`, domain.ProvenanceFallback)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if fb.Confidence != 0.3 {
		t.Fatalf("fallback confidence=%.2f, want 0.3", fb.Confidence)
	}
}

func TestNormalizeParameterStringify(t *testing.T) {
	n := New(Config{})
	got, err := n.Normalize(`{"action":"scroll","parameters":{"direction":"down","amount":2,"smooth":true}}`, domain.ProvenancePrimary)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Parameters["amount"] != "2" {
		t.Fatalf("amount=%q, want 2", got.Parameters["amount"])
	}
	if got.Parameters["smooth"] != "true" {
		t.Fatalf("smooth=%q, want true", got.Parameters["smooth"])
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddr != ":9020" {
		t.Fatalf("http addr=%s", cfg.HTTPAddr)
	}
	if cfg.OpenAITimeout != 8*time.Second {
		t.Fatalf("openai timeout=%v", cfg.OpenAITimeout)
	}
	if cfg.FallbackConfidence != 0.4 {
		t.Fatalf("fallback confidence=%v", cfg.FallbackConfidence)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAGEPILOT_HTTP_ADDR", ":8088")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("OPENAI_TIMEOUT_MS", "1500")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example/v1/")
	t.Setenv("FALLBACK_CONFIDENCE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddr != ":8088" {
		t.Fatalf("http addr=%s", cfg.HTTPAddr)
	}
	if cfg.OpenAITimeout != 1500*time.Millisecond {
		t.Fatalf("openai timeout=%v", cfg.OpenAITimeout)
	}
	if cfg.OpenAIBaseURL != "https://proxy.example/v1" {
		t.Fatalf("base url=%s, want trailing slash trimmed", cfg.OpenAIBaseURL)
	}
	if cfg.FallbackConfidence != 0.25 {
		t.Fatalf("fallback confidence=%v", cfg.FallbackConfidence)
	}
}

func TestLoadRejectsBadConfidence(t *testing.T) {
	t.Setenv("FALLBACK_CONFIDENCE", "1.7")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out-of-range confidence")
	}
}

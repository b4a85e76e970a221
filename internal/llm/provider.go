package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pagepilot/internal/domain"
)

// Provider is one interchangeable text-completion backend. Complete returns
// the raw model text; any non-success outcome surfaces as a *ProviderError,
// never as silently truncated content.
type Provider interface {
	Name() string
	Timeout() time.Duration
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error)
}

type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (c ProviderConfig) configured() bool {
	return c.APIKey != ""
}

type Config struct {
	OpenAI    ProviderConfig
	Anthropic ProviderConfig
}

// ProvidersFromConfig builds the attempt chain in priority order: OpenAI
// first, Anthropic second. A provider without a credential is simply not
// constructed; the caller treats absence as "skip", not as an error.
func ProvidersFromConfig(cfg Config) []Provider {
	client := &http.Client{}

	var out []Provider
	if cfg.OpenAI.configured() {
		out = append(out, NewOpenAIProvider(client, cfg.OpenAI))
	}
	if cfg.Anthropic.configured() {
		out = append(out, NewClaudeProvider(client, cfg.Anthropic))
	}
	return out
}

const defaultProviderTimeout = 10 * time.Second

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultProviderTimeout
	}
	return d
}

func fmtProviderName(name, model string) string {
	if model == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", name, model)
}

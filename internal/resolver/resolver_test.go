package resolver

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/internal/fallback"
	"pagepilot/internal/llm"
	"pagepilot/internal/normalize"
)

type stubProvider struct {
	name    string
	content string
	err     error
	timeout time.Duration
	block   bool

	calls     int
	gotSystem string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Timeout() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return time.Second
}

func (s *stubProvider) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	s.calls++
	s.gotSystem = req.System
	if s.block {
		<-ctx.Done()
		return domain.CompletionResponse{}, &llm.ProviderError{Provider: s.name, Kind: llm.KindTimeout, Err: ctx.Err()}
	}
	if s.err != nil {
		return domain.CompletionResponse{}, s.err
	}
	return domain.CompletionResponse{Content: s.content}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(providers ...llm.Provider) *Service {
	return New(Config{}, providers, fallback.NewParser(0.4), normalize.New(normalize.Config{}), testLogger())
}

func TestResolveFallbackGuarantee(t *testing.T) {
	// With zero configured providers, output must equal the parser's output
	// exactly.
	svc := newService()
	parser := fallback.NewParser(0.4)

	for _, input := range []string{"scroll down", "fill email with john@example.com", "what is the meaning of life"} {
		got := svc.Resolve(context.Background(), input, domain.PageContext{})
		want := parser.Parse(input)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Resolve(%q) = %+v, want parser output %+v", input, got, want)
		}
	}
}

func TestResolveEndToEndScrollDown(t *testing.T) {
	svc := newService()
	got := svc.Resolve(context.Background(), "scroll down", domain.PageContext{})
	if got.Action != domain.ActionScroll {
		t.Fatalf("action=%s, want scroll", got.Action)
	}
	if got.Parameters["direction"] != "down" {
		t.Fatalf("direction=%s, want down", got.Parameters["direction"])
	}
	if got.Confidence != 0.4 {
		t.Fatalf("confidence=%.2f, want 0.4", got.Confidence)
	}
	if got.ProviderUsed != domain.ProvenanceFallback {
		t.Fatalf("provider_used=%s, want fallback", got.ProviderUsed)
	}
}

func TestResolvePriorityOrdering(t *testing.T) {
	primary := &stubProvider{
		name: "openai",
		err:  &llm.ProviderError{Provider: "openai", Kind: llm.KindServerError, Err: context.DeadlineExceeded},
	}
	secondary := &stubProvider{name: "claude", content: `{"action":"click","target":"login","confidence":0.9}`}
	svc := newService(primary, secondary)

	got := svc.Resolve(context.Background(), "click login", domain.PageContext{})
	if got.ProviderUsed != domain.ProvenanceSecondary {
		t.Fatalf("provider_used=%s, want secondary", got.ProviderUsed)
	}
	if got.Action != domain.ActionClick || got.Target != "login" {
		t.Fatalf("got %+v, want click login", got)
	}
	if primary.calls != 1 {
		t.Fatalf("primary called %d times, want exactly 1 (no retries)", primary.calls)
	}
}

func TestResolvePrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "openai", content: `{"action":"navigate","parameters":{"destination":"example.com"},"confidence":0.95}`}
	secondary := &stubProvider{name: "claude", content: `{"action":"unknown"}`}
	svc := newService(primary, secondary)

	got := svc.Resolve(context.Background(), "go to example.com", domain.PageContext{})
	if got.ProviderUsed != domain.ProvenancePrimary {
		t.Fatalf("provider_used=%s, want primary", got.ProviderUsed)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.calls)
	}
	if got.RawText != "go to example.com" {
		t.Fatalf("raw_text=%q", got.RawText)
	}
}

func TestResolveMalformedPrimaryRecoveredByKeyword(t *testing.T) {
	// Syntactically invalid but contains an action keyword: soft recovery
	// keeps the result on the primary stage instead of failing over.
	primary := &stubProvider{name: "openai", content: "action: click, sorry for the malformed json"}
	secondary := &stubProvider{name: "claude", content: `{"action":"scroll"}`}
	svc := newService(primary, secondary)

	got := svc.Resolve(context.Background(), "click the button", domain.PageContext{})
	if got.ProviderUsed != domain.ProvenancePrimary {
		t.Fatalf("provider_used=%s, want primary", got.ProviderUsed)
	}
	if got.Action != domain.ActionClick {
		t.Fatalf("action=%s, want click", got.Action)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestResolveUnusableResponseFallsThrough(t *testing.T) {
	primary := &stubProvider{name: "openai", content: "I cannot help with that."}
	secondary := &stubProvider{name: "claude", content: `{"action":"scroll","parameters":{"direction":"up"}}`}
	svc := newService(primary, secondary)

	got := svc.Resolve(context.Background(), "scroll up", domain.PageContext{})
	if got.ProviderUsed != domain.ProvenanceSecondary {
		t.Fatalf("provider_used=%s, want secondary", got.ProviderUsed)
	}
}

func TestResolveTimeoutFallsThroughWithinBound(t *testing.T) {
	primary := &stubProvider{name: "openai", block: true, timeout: 30 * time.Millisecond}
	secondary := &stubProvider{name: "claude", content: `{"action":"refresh"}`}
	svc := newService(primary, secondary)

	start := time.Now()
	got := svc.Resolve(context.Background(), "refresh", domain.PageContext{})
	elapsed := time.Since(start)

	if got.ProviderUsed != domain.ProvenanceSecondary {
		t.Fatalf("provider_used=%s, want secondary", got.ProviderUsed)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("resolution took %v, timeout not enforced", elapsed)
	}
}

func TestResolveTotality(t *testing.T) {
	primary := &stubProvider{name: "openai", err: &llm.ProviderError{Provider: "openai", Kind: llm.KindNetworkError, Err: io.ErrUnexpectedEOF}}
	secondary := &stubProvider{name: "claude", content: "garbage with no verbs at all"}
	svc := newService(primary, secondary)

	got := svc.Resolve(context.Background(), "do something impossible please", domain.PageContext{})
	if got.Action != domain.ActionUnknown {
		t.Fatalf("action=%s, want unknown", got.Action)
	}
	if got.ProviderUsed != domain.ProvenanceFallback {
		t.Fatalf("provider_used=%s, want fallback", got.ProviderUsed)
	}
}

func TestResolvePassesPageContextToPrompt(t *testing.T) {
	primary := &stubProvider{name: "openai", content: `{"action":"click","target":"Checkout"}`}
	svc := newService(primary)

	svc.Resolve(context.Background(), "click checkout", domain.PageContext{
		URL: "https://shop.example/cart",
		Elements: []domain.ElementDescriptor{
			{Tag: "button", Text: "Checkout", Selector: "#checkout"},
		},
	})
	if !strings.Contains(primary.gotSystem, "https://shop.example/cart") {
		t.Fatalf("system prompt missing page url:\n%s", primary.gotSystem)
	}
	if !strings.Contains(primary.gotSystem, "Checkout") {
		t.Fatalf("system prompt missing element text:\n%s", primary.gotSystem)
	}
}

func TestBuildSystemPromptCapsElements(t *testing.T) {
	elements := make([]domain.ElementDescriptor, 40)
	for i := range elements {
		elements[i] = domain.ElementDescriptor{Tag: "a", Text: "link"}
	}
	prompt := buildSystemPrompt(domain.PageContext{Elements: elements})
	if !strings.Contains(prompt, "and 15 more") {
		t.Fatalf("prompt does not cap element list:\n%s", prompt)
	}
}

func TestStageNames(t *testing.T) {
	if stageName(0) != domain.ProvenancePrimary || stageName(1) != domain.ProvenanceSecondary {
		t.Fatalf("unexpected stage names: %s, %s", stageName(0), stageName(1))
	}
	if stageName(2) != "provider-3" {
		t.Fatalf("stageName(2)=%s, want provider-3", stageName(2))
	}
}

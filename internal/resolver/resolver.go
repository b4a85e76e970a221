package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/internal/fallback"
	"pagepilot/internal/llm"
	"pagepilot/internal/normalize"
)

// Service runs the resolution chain: each configured provider once, in
// priority order, then the deterministic parser. Its contract is total: any
// non-empty input yields exactly one well-formed Intent, never an error.
// No state survives between calls; page context is passed in, not stored.
type Service struct {
	providers   []llm.Provider
	parser      *fallback.Parser
	normalizer  *normalize.Normalizer
	logger      *slog.Logger
	temperature float64
	maxTokens   int
}

type Config struct {
	Temperature float64
	MaxTokens   int
}

func New(cfg Config, providers []llm.Provider, parser *fallback.Parser, normalizer *normalize.Normalizer, logger *slog.Logger) *Service {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Service{
		providers:   providers,
		parser:      parser,
		normalizer:  normalizer,
		logger:      logger,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Resolve tries providers in priority order and falls back to the rule
// parser. Single attempt per provider, no retry or backoff: the caller is an
// interactive voice session and a second stage beats a second try.
func (s *Service) Resolve(ctx context.Context, text string, page domain.PageContext) domain.Intent {
	system := buildSystemPrompt(page)

	for i, provider := range s.providers {
		stage := stageName(i)
		start := time.Now()
		intent, err := s.attempt(ctx, provider, stage, system, text)
		latency := time.Since(start)
		if err != nil {
			s.logger.Warn("provider attempt failed",
				"provider", provider.Name(),
				"stage", stage,
				"latency_ms", latency.Milliseconds(),
				"error", err,
			)
			continue
		}
		s.logger.Info("intent resolved",
			"provider", provider.Name(),
			"stage", stage,
			"latency_ms", latency.Milliseconds(),
			"action", intent.Action,
			"confidence", intent.Confidence,
		)
		return intent
	}

	start := time.Now()
	intent := s.parser.Parse(text)
	s.logger.Info("intent resolved",
		"provider", "rules",
		"stage", domain.ProvenanceFallback,
		"latency_ms", time.Since(start).Milliseconds(),
		"action", intent.Action,
		"confidence", intent.Confidence,
	)
	return intent
}

func (s *Service) attempt(ctx context.Context, provider llm.Provider, stage, system, text string) (domain.Intent, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, provider.Timeout())
	defer cancel()

	resp, err := provider.Complete(attemptCtx, domain.CompletionRequest{
		System:      system,
		Prompt:      text,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return domain.Intent{}, err
	}

	intent, err := s.normalizer.Normalize(resp.Content, stage)
	if err != nil {
		return domain.Intent{}, err
	}
	intent.RawText = text
	return intent, nil
}

func stageName(i int) string {
	switch i {
	case 0:
		return domain.ProvenancePrimary
	case 1:
		return domain.ProvenanceSecondary
	default:
		return fmt.Sprintf("provider-%d", i+1)
	}
}

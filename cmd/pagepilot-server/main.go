package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pagepilot/internal/config"
	"pagepilot/internal/events"
	"pagepilot/internal/fallback"
	"pagepilot/internal/llm"
	"pagepilot/internal/normalize"
	"pagepilot/internal/resolver"
	"pagepilot/internal/session"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers := llm.ProvidersFromConfig(llm.Config{
		OpenAI: llm.ProviderConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		},
		Anthropic: llm.ProviderConfig{
			BaseURL: cfg.AnthropicBaseURL,
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.AnthropicTimeout,
		},
	})
	if len(providers) == 0 {
		logger.Warn("no AI provider credentials configured, serving rule-based fallback only")
	}

	parser := fallback.NewParser(cfg.FallbackConfidence)
	normalizer := normalize.New(normalize.Config{
		AIDefaultConfidence:       cfg.AIConfidence,
		FallbackDefaultConfidence: cfg.FallbackConfidence,
	})
	res := resolver.New(resolver.Config{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, providers, parser, normalizer, logger)

	sessions := session.NewRegistry(cfg.SessionContextTTL)

	publisher := events.NewPublisher(events.PublisherConfig{
		BrokerURL:   cfg.MQTTBrokerURL,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
	}, logger)
	if publisher.Enabled() {
		if err := publisher.Start(ctx); err != nil {
			logger.Error("start intent event publisher failed", "error", err)
			os.Exit(1)
		}
		logger.Info("intent event publisher started", "broker", cfg.MQTTBrokerURL)
	}

	srv := newServer(res, sessions, publisher, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("pagepilot server started", "addr", cfg.HTTPAddr, "providers", len(providers))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}

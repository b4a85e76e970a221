package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig is built once at startup and passed explicitly; nothing
// mutates it afterwards.
type ServerConfig struct {
	HTTPAddr string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	AnthropicBaseURL string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicTimeout time.Duration

	Temperature float64
	MaxTokens   int

	AIConfidence       float64
	FallbackConfidence float64

	SessionContextTTL time.Duration

	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

func Load() (ServerConfig, error) {
	cfg := ServerConfig{
		HTTPAddr: getenvDefault("PAGEPILOT_HTTP_ADDR", ":9020"),

		OpenAIBaseURL: getenvDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: time.Duration(getenvIntDefault("OPENAI_TIMEOUT_MS", 8000)) * time.Millisecond,

		AnthropicBaseURL: getenvDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getenvDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicTimeout: time.Duration(getenvIntDefault("ANTHROPIC_TIMEOUT_MS", 8000)) * time.Millisecond,

		Temperature: getenvFloatDefault("LLM_TEMPERATURE", 0.2),
		MaxTokens:   getenvIntDefault("LLM_MAX_TOKENS", 256),

		AIConfidence:       getenvFloatDefault("AI_CONFIDENCE_DEFAULT", 0.8),
		FallbackConfidence: getenvFloatDefault("FALLBACK_CONFIDENCE", 0.4),

		SessionContextTTL: time.Duration(getenvIntDefault("SESSION_CONTEXT_TTL_SECONDS", 120)) * time.Second,

		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:    getenvDefault("MQTT_CLIENT_ID", "pagepilot-server"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix: getenvDefault("MQTT_TOPIC_PREFIX", "pagepilot"),
	}

	if cfg.AIConfidence <= 0 || cfg.AIConfidence > 1 {
		return ServerConfig{}, fmt.Errorf("AI_CONFIDENCE_DEFAULT must be in (0,1], got %v", cfg.AIConfidence)
	}
	if cfg.FallbackConfidence <= 0 || cfg.FallbackConfidence > 1 {
		return ServerConfig{}, fmt.Errorf("FALLBACK_CONFIDENCE must be in (0,1], got %v", cfg.FallbackConfidence)
	}

	cfg.OpenAIBaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	cfg.AnthropicBaseURL = strings.TrimRight(cfg.AnthropicBaseURL, "/")
	return cfg, nil
}

func getenvDefault(key, val string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return val
}

func getenvIntDefault(key string, val int) int {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return val
	}
	return n
}

func getenvFloatDefault(key string, val float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return val
	}
	return f
}

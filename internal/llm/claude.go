package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pagepilot/internal/domain"
)

type ClaudeProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

func NewClaudeProvider(client *http.Client, cfg ProviderConfig) *ClaudeProvider {
	return &ClaudeProvider{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: timeoutOrDefault(cfg.Timeout),
	}
}

func (p *ClaudeProvider) Name() string {
	return fmtProviderName("claude", p.model)
}

func (p *ClaudeProvider) Timeout() time.Duration {
	return p.timeout
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type claudeResponse struct {
	Content []claudeBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *ClaudeProvider) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload := claudeRequest{
		Model:       model,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: []claudeBlock{{Type: "text", Text: req.Prompt}}},
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return domain.CompletionResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("content-type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return domain.CompletionResponse{}, transportError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return domain.CompletionResponse{}, statusError(p.Name(), resp.StatusCode, body)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.CompletionResponse{}, envelopeError(p.Name(), fmt.Errorf("invalid response body: %w", err))
	}
	if parsed.Error != nil {
		return domain.CompletionResponse{}, envelopeError(p.Name(), fmt.Errorf("api error: %s", parsed.Error.Message))
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		if text == "" {
			text = block.Text
		} else {
			text += "\n" + block.Text
		}
	}
	if strings.TrimSpace(text) == "" {
		return domain.CompletionResponse{}, envelopeError(p.Name(), fmt.Errorf("empty completion"))
	}
	return domain.CompletionResponse{Content: text}, nil
}

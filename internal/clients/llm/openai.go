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

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
)

// openAIProvider speaks the OpenAI-compatible chat-completions protocol,
// which also covers DeepSeek, Ollama and LM Studio endpoints.
type openAIProvider struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
}

func NewOpenAICompatible(log *logger.Logger, baseURL, apiKey, model string, timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &openAIProvider{
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("client", "LLMProvider", "model", model),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *openAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	payload := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.Error("LLM API returned error status", "status", resp.StatusCode, "body", truncate(string(raw), 500))
		return "", fmt.Errorf("llm: api status %d", resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: response has no choices")
	}
	content := parsed.Choices[0].Message.Content
	p.log.Debug("LLM response received", "chars", len(content))
	return content, nil
}

func (p *openAIProvider) HealthCheck(ctx context.Context) bool {
	_, err := p.Complete(ctx, "", "Hi", 0, 5)
	if err != nil {
		p.log.Warn("LLM health check failed", "error", err)
		return false
	}
	return true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
)

// mockProvider is the deterministic offline backend. It emits the same JSON
// contract the analyzer expects, driven by simple keyword rules, so the
// whole pipeline runs without any external service.
type mockProvider struct {
	log *logger.Logger
}

func NewMock(log *logger.Logger) Provider {
	return &mockProvider{log: log.With("client", "MockLLMProvider")}
}

type mockAnalysis struct {
	Intent           string         `json:"intent"`
	Emotion          string         `json:"emotion"`
	DetectedConcepts []string       `json:"detectedConcepts"`
	Delta            map[string]int `json:"delta"`
	Evidence         map[string]any `json:"evidence"`
}

var mockVocabulary = []string{
	"neural network", "backpropagation", "gradient descent", "activation function",
	"overfitting", "underfitting", "deep learning", "machine learning",
	"convolution", "recurrent neural network", "attention mechanism", "transformer",
	"神经网络", "反向传播", "梯度下降", "激活函数", "过拟合", "深度学习", "机器学习",
}

func (p *mockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	// Reply generation (non-analysis calls) gets a canned response.
	if !strings.Contains(systemPrompt, "JSON") && !strings.Contains(systemPrompt, "json") {
		return "Let's work through this together. What part feels least clear so far?", nil
	}

	out := mockAnalysis{
		Intent:           "chat",
		Emotion:          "neutral",
		DetectedConcepts: []string{},
		Delta:            map[string]int{"cognition": 0, "affect": 0, "behavior": 0},
		Evidence:         map[string]any{"spans": []any{}, "confidence": 0.8},
	}

	lower := strings.ToLower(userPrompt)
	switch {
	case containsAny(lower, "don't understand", "do not understand", "confused", "how do", "why does", "help", "不懂", "不理解", "不会", "怎么", "为什么"):
		out.Intent = "help-seeking"
		out.Emotion = "confused"
		out.Delta = map[string]int{"cognition": -5, "affect": -10, "behavior": 5}
	case containsAny(lower, "want to learn", "learn about", "study", "学习", "想学", "了解", "掌握"):
		out.Intent = "exploration"
		out.Emotion = "curious"
		out.Delta = map[string]int{"cognition": 0, "affect": 5, "behavior": 10}
	case containsAny(lower, "i think", "i believe", "my understanding", "我觉得", "我认为", "我的理解"):
		out.Intent = "reflection"
		out.Emotion = "thoughtful"
		out.Delta = map[string]int{"cognition": 5, "affect": 3, "behavior": 2}
	case containsAny(lower, "goal", "plan", "目标", "计划", "打算", "准备"):
		out.Intent = "goal-setting"
		out.Emotion = "motivated"
		out.Delta = map[string]int{"cognition": 2, "affect": 8, "behavior": 10}
	}

	for _, concept := range mockVocabulary {
		if strings.Contains(lower, strings.ToLower(concept)) {
			out.DetectedConcepts = append(out.DetectedConcepts, concept)
		}
	}
	if len(out.DetectedConcepts) > 0 {
		out.Delta["cognition"] += 3
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	p.log.Debug("mock LLM response", "chars", len(raw))
	return string(raw), nil
}

func (p *mockProvider) HealthCheck(ctx context.Context) bool { return true }

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

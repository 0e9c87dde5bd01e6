package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/cognisync-backend/internal/clients/llm"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

//go:embed fallback_rules.yaml
var fallbackRulesYAML []byte

var validIntents = map[string]bool{
	"help-seeking": true, "goal-setting": true, "reflection": true,
	"chat": true, "exploration": true, "confirmation": true,
	"challenge": true, "application": true,
}

var validEmotions = map[string]bool{
	"confused": true, "neutral": true, "frustrated": true, "curious": true,
	"excited": true, "confident": true, "anxious": true, "satisfied": true,
	"motivated": true, "thoughtful": true,
}

type fallbackRule struct {
	Intent   string             `yaml:"intent"`
	Emotion  string             `yaml:"emotion"`
	Delta    types.ProfileDelta `yaml:"delta"`
	Keywords []string           `yaml:"keywords"`
}

type fallbackRules struct {
	Rules   []fallbackRule `yaml:"rules"`
	Default struct {
		Intent  string `yaml:"intent"`
		Emotion string `yaml:"emotion"`
	} `yaml:"default"`
	Vocabulary []string `yaml:"vocabulary"`
}

// AnalyzerService turns a raw learner utterance into a structured Analysis:
// intent, emotion, detected concepts, a bounded profile delta and evidence.
// It never returns an error; when the LLM path fails in any way the keyword
// rules take over so the pipeline keeps moving.
type AnalyzerService struct {
	provider llm.Provider
	log      *logger.Logger
	rules    fallbackRules
}

func NewAnalyzerService(provider llm.Provider, log *logger.Logger) (*AnalyzerService, error) {
	var rules fallbackRules
	if err := yaml.Unmarshal(fallbackRulesYAML, &rules); err != nil {
		return nil, fmt.Errorf("parse fallback rules: %w", err)
	}
	return &AnalyzerService{
		provider: provider,
		log:      log.With("service", "AnalyzerService"),
		rules:    rules,
	}, nil
}

const analyzerSystemPrompt = `You analyze a learner's utterance in a tutoring conversation and respond with a single JSON object, nothing else.

The JSON object must have exactly these fields:
- "intent": one of "help-seeking", "goal-setting", "reflection", "chat", "exploration", "confirmation", "challenge", "application"
- "emotion": one of "confused", "neutral", "frustrated", "curious", "excited", "confident", "anxious", "satisfied", "motivated", "thoughtful"
- "detectedConcepts": array of domain concept names mentioned or implied (empty array if none)
- "delta": object with integer fields "cognition", "affect", "behavior", each in [-10, 10], describing how this utterance should move the learner's profile
- "evidence": object with "spans" (array of {"text", "label", "start", "end"} citing the parts of the utterance that justify your reading) and "confidence" (0.0 to 1.0)

Respond with the JSON object only. No markdown, no commentary.`

// Analyze classifies the utterance, preferring the LLM provider and falling
// back to the embedded keyword rules.
func (s *AnalyzerService) Analyze(ctx context.Context, utterance string, history []types.ContextMessage) types.Analysis {
	if s.provider != nil {
		if analysis, ok := s.analyzeLLM(ctx, utterance, history); ok {
			return analysis
		}
	}
	return s.analyzeFallback(utterance)
}

func (s *AnalyzerService) analyzeLLM(ctx context.Context, utterance string, history []types.ContextMessage) (types.Analysis, bool) {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Learner's current utterance:\n")
	sb.WriteString(utterance)

	raw, err := s.provider.Complete(ctx, analyzerSystemPrompt, sb.String(), 0.3, 800)
	if err != nil {
		s.log.Warn("LLM analysis failed, using fallback rules", "error", err)
		return types.Analysis{}, false
	}

	payload, ok := extractJSON(raw)
	if !ok {
		s.log.Warn("LLM response contained no JSON object, using fallback rules")
		return types.Analysis{}, false
	}

	var analysis types.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		s.log.Warn("LLM JSON did not parse, using fallback rules", "error", err)
		return types.Analysis{}, false
	}

	s.sanitize(&analysis, utterance)
	return analysis, true
}

// sanitize coerces out-of-contract LLM output back into bounds rather than
// rejecting it: unknown enums become defaults, deltas clamp to [-10, 10].
func (s *AnalyzerService) sanitize(analysis *types.Analysis, utterance string) {
	if !validIntents[analysis.Intent] {
		analysis.Intent = "chat"
	}
	if !validEmotions[analysis.Emotion] {
		analysis.Emotion = "neutral"
	}
	if analysis.DetectedConcepts == nil {
		analysis.DetectedConcepts = []string{}
	}
	analysis.Delta.Cognition = clampInt(analysis.Delta.Cognition, -10, 10)
	analysis.Delta.Affect = clampInt(analysis.Delta.Affect, -10, 10)
	analysis.Delta.Behavior = clampInt(analysis.Delta.Behavior, -10, 10)

	if analysis.Evidence.Confidence <= 0 || analysis.Evidence.Confidence > 1 {
		analysis.Evidence.Confidence = 0.5
	}
	spans := analysis.Evidence.Spans[:0]
	for _, span := range analysis.Evidence.Spans {
		if span.Start < 0 || span.End < span.Start || span.End > len(utterance) {
			continue
		}
		spans = append(spans, span)
	}
	analysis.Evidence.Spans = spans
	if analysis.Evidence.Spans == nil {
		analysis.Evidence.Spans = []types.EvidenceSpan{}
	}
}

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls a JSON object out of a model response that may wrap it
// in markdown fences or prose.
func extractJSON(raw string) (string, bool) {
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], true
	}
	return "", false
}

func (s *AnalyzerService) analyzeFallback(utterance string) types.Analysis {
	lower := strings.ToLower(utterance)

	analysis := types.Analysis{
		Intent:           s.rules.Default.Intent,
		Emotion:          s.rules.Default.Emotion,
		DetectedConcepts: []string{},
		Evidence:         types.Evidence{Spans: []types.EvidenceSpan{}, Confidence: 0.5},
	}

	for _, rule := range s.rules.Rules {
		matched := ""
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				matched = kw
				break
			}
		}
		if matched == "" {
			continue
		}
		analysis.Intent = rule.Intent
		analysis.Emotion = rule.Emotion
		analysis.Delta = rule.Delta
		if idx := strings.Index(lower, matched); idx >= 0 {
			analysis.Evidence.Spans = append(analysis.Evidence.Spans, types.EvidenceSpan{
				Text:  utterance[idx : idx+len(matched)],
				Label: rule.Intent,
				Start: idx,
				End:   idx + len(matched),
			})
		}
		break
	}

	for _, concept := range s.rules.Vocabulary {
		if strings.Contains(lower, strings.ToLower(concept)) {
			analysis.DetectedConcepts = append(analysis.DetectedConcepts, concept)
		}
	}
	if n := len(analysis.DetectedConcepts); n > 0 {
		bonus := n
		if bonus > 3 {
			bonus = 3
		}
		analysis.Delta.Cognition = clampInt(analysis.Delta.Cognition+bonus, -10, 10)
	}

	return analysis
}

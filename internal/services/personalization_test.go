package services

import (
	"strings"
	"testing"

	"github.com/yungbote/cognisync-backend/internal/types"
)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		axis string
		fn   func(int) string
		in   int
		want string
	}{
		{"cognition", CognitionTier, 30, "foundational"},
		{"cognition", CognitionTier, 31, "developing"},
		{"cognition", CognitionTier, 60, "developing"},
		{"cognition", CognitionTier, 61, "proficient"},
		{"cognition", CognitionTier, 80, "proficient"},
		{"cognition", CognitionTier, 81, "advanced"},
		{"affect", AffectTier, 30, "discouraged"},
		{"affect", AffectTier, 31, "wavering"},
		{"affect", AffectTier, 61, "engaged"},
		{"affect", AffectTier, 81, "thriving"},
		{"behavior", BehaviorTier, 30, "passive"},
		{"behavior", BehaviorTier, 31, "responsive"},
		{"behavior", BehaviorTier, 61, "active"},
		{"behavior", BehaviorTier, 81, "self-directed"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("%s tier(%d) = %q, want %q", tt.axis, tt.in, got, tt.want)
		}
	}
}

func TestBuildSystemPrompt_English(t *testing.T) {
	s := NewPersonalizationService(PersonalizationOptions{Language: "en"})
	profile := types.Profile{Cognition: 20, Affect: 25, Behavior: 90}

	prompt := s.BuildSystemPrompt(profile, "confused", types.GraphData{})

	for _, want := range []string{
		"Reply in English",
		"simple language",          // foundational cognition
		"warm and reassuring",      // discouraged affect
		"deeper resources",         // self-directed behavior
		"sounds confused",          // emotion tone
		"directly and clearly",     // non-research mode
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, prompt)
		}
	}
}

func TestBuildSystemPrompt_ResearchModeSocratic(t *testing.T) {
	s := NewPersonalizationService(PersonalizationOptions{Language: "en", ResearchMode: true})

	prompt := s.BuildSystemPrompt(types.Profile{Cognition: 50, Affect: 50, Behavior: 50}, "neutral", types.GraphData{})

	if !strings.Contains(prompt, "Socratically") {
		t.Error("research mode prompt should demand Socratic questioning")
	}
	if strings.Contains(prompt, "directly and clearly") {
		t.Error("research mode prompt should not promise direct answers")
	}
}

func TestBuildSystemPrompt_Chinese(t *testing.T) {
	s := NewPersonalizationService(PersonalizationOptions{Language: "zh"})

	prompt := s.BuildSystemPrompt(types.Profile{Cognition: 50, Affect: 50, Behavior: 50}, "curious", types.GraphData{})

	if !strings.Contains(prompt, "请用中文回复") {
		t.Error("zh prompt should request Chinese replies")
	}
	if !strings.Contains(prompt, "好奇") {
		t.Error("zh prompt should carry the curious tone line")
	}
}

func TestBuildSystemPrompt_TopFiveConcepts(t *testing.T) {
	s := NewPersonalizationService(PersonalizationOptions{Language: "en"})
	graph := types.GraphData{Nodes: []types.GraphNode{
		{Name: "tensors", Frequency: 1},
		{Name: "backprop", Frequency: 9},
		{Name: "pooling", Frequency: 3},
		{Name: "dropout", Frequency: 7},
		{Name: "softmax", Frequency: 5},
		{Name: "padding", Frequency: 2},
		{Name: "batchnorm", Frequency: 8},
	}}

	prompt := s.BuildSystemPrompt(types.Profile{Cognition: 50, Affect: 50, Behavior: 50}, "neutral", graph)

	for _, want := range []string{"backprop", "batchnorm", "dropout", "softmax", "pooling"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing high-frequency concept %q", want)
		}
	}
	for _, absent := range []string{"tensors", "padding"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("low-frequency concept %q should not be listed", absent)
		}
	}
}

func TestBuildSystemPrompt_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	s := NewPersonalizationService(PersonalizationOptions{Language: "fr"})
	prompt := s.BuildSystemPrompt(types.Profile{Cognition: 50, Affect: 50, Behavior: 50}, "neutral", types.GraphData{})
	if !strings.Contains(prompt, "Reply in English") {
		t.Error("unknown language should fall back to English")
	}
}

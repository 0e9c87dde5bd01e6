package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
)

func newMock(t *testing.T) Provider {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewMock(log)
}

func TestMock_AnalysisIsValidJSON(t *testing.T) {
	p := newMock(t)

	raw, err := p.Complete(context.Background(), "Respond with a single JSON object.", "I don't understand backpropagation", 0.3, 800)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var out mockAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("mock analysis is not valid JSON: %v\n%s", err, raw)
	}
	if out.Intent != "help-seeking" || out.Emotion != "confused" {
		t.Errorf("got %s/%s, want help-seeking/confused", out.Intent, out.Emotion)
	}
	if len(out.DetectedConcepts) == 0 {
		t.Error("expected backpropagation to be detected")
	}
}

func TestMock_CannedReplyForNonAnalysisPrompts(t *testing.T) {
	p := newMock(t)

	raw, err := p.Complete(context.Background(), "You are a patient tutor.", "hello", 0.7, 500)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if json.Valid([]byte(raw)) {
		t.Errorf("reply prompt should yield prose, got JSON: %s", raw)
	}
}

func TestMock_HealthCheck(t *testing.T) {
	if !newMock(t).HealthCheck(context.Background()) {
		t.Error("mock should always be healthy")
	}
}

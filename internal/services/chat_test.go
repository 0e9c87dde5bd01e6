package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type fakeMessageRepo struct {
	messages  []*types.ChatMessage
	createErr error
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	message.ID = uuid.New()
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) GetRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if len(f.messages) <= limit {
		return f.messages, nil
	}
	return f.messages[len(f.messages)-limit:], nil
}

type fakeAnalyzer struct {
	analysis types.Analysis
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, utterance string, history []types.ContextMessage) types.Analysis {
	f.calls++
	return f.analysis
}

type fakeProfiles struct {
	profile types.Profile
	err     error
	deltas  []types.ProfileDelta
}

func (f *fakeProfiles) ApplyDelta(ctx context.Context, learnerID uuid.UUID, delta types.ProfileDelta) (types.Profile, error) {
	f.deltas = append(f.deltas, delta)
	return f.profile, f.err
}

type fakeGraph struct {
	upsertCalls int
	upsertErr   error
	graph       types.GraphData
	graphErr    error
}

func (f *fakeGraph) UpsertConcepts(ctx context.Context, learnerID string, names []string) (int, error) {
	f.upsertCalls++
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	return len(names), nil
}

func (f *fakeGraph) GetGraph(ctx context.Context, learnerID string) (types.GraphData, error) {
	return f.graph, f.graphErr
}

func newTestChatService(t *testing.T, repo *fakeMessageRepo, analyzer *fakeAnalyzer, profiles *fakeProfiles, graph *fakeGraph, replies *fakeProvider) *ChatService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewChatService(nil, log, repo, analyzer, profiles, graph, replies, PersonalizationOptions{Language: "en"})
}

func testAnalysis() types.Analysis {
	return types.Analysis{
		Intent:           "help-seeking",
		Emotion:          "confused",
		DetectedConcepts: []string{"backpropagation"},
		Delta:            types.ProfileDelta{Cognition: -4, Affect: -8, Behavior: 5},
		Evidence:         types.Evidence{Spans: []types.EvidenceSpan{}, Confidence: 0.5},
	}
}

func TestHandleUtterance_HappyPath(t *testing.T) {
	repo := &fakeMessageRepo{}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	profiles := &fakeProfiles{profile: types.Profile{Cognition: 46, Affect: 42, Behavior: 55}}
	graph := &fakeGraph{}
	replies := &fakeProvider{response: "Let's break backpropagation into steps."}
	s := newTestChatService(t, repo, analyzer, profiles, graph, replies)

	learnerID := uuid.New()
	result, err := s.HandleUtterance(context.Background(), learnerID, "I don't understand backpropagation", ChatOptions{})
	if err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}

	if result.Message != "Let's break backpropagation into steps." {
		t.Errorf("message = %q", result.Message)
	}
	if result.UpdatedProfile.Cognition != 46 {
		t.Errorf("updated profile = %+v", result.UpdatedProfile)
	}
	if len(result.UpdatedConcepts) != 1 || result.UpdatedConcepts[0] != "backpropagation" {
		t.Errorf("updated concepts = %v", result.UpdatedConcepts)
	}

	if len(profiles.deltas) != 1 || profiles.deltas[0] != testAnalysis().Delta {
		t.Errorf("applied deltas = %v", profiles.deltas)
	}
	// One pass from the context-aware analysis, one from the raw-utterance
	// second pass.
	if graph.upsertCalls != 2 {
		t.Errorf("upsert calls = %d, want 2", graph.upsertCalls)
	}

	if len(repo.messages) != 2 {
		t.Fatalf("persisted %d messages, want user + assistant", len(repo.messages))
	}
	if repo.messages[0].Role != types.RoleUser || repo.messages[1].Role != types.RoleAssistant {
		t.Errorf("roles = %s, %s", repo.messages[0].Role, repo.messages[1].Role)
	}
	if len(repo.messages[0].Analysis) != 0 {
		t.Error("user message should not carry an analysis payload")
	}
	if len(repo.messages[1].Analysis) == 0 {
		t.Error("assistant message should carry the analysis payload")
	}
}

func TestHandleUtterance_GraphFailureTolerated(t *testing.T) {
	repo := &fakeMessageRepo{}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	profiles := &fakeProfiles{profile: types.Profile{Cognition: 46, Affect: 42, Behavior: 55}}
	graph := &fakeGraph{upsertErr: errors.New("neo4j down"), graphErr: errors.New("neo4j down")}
	replies := &fakeProvider{response: "Still here to help."}
	s := newTestChatService(t, repo, analyzer, profiles, graph, replies)

	result, err := s.HandleUtterance(context.Background(), uuid.New(), "I don't understand backpropagation", ChatOptions{})
	if err != nil {
		t.Fatalf("graph failure should not abort the pipeline: %v", err)
	}
	if result.Message != "Still here to help." {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.UpdatedConcepts) != 0 {
		t.Errorf("updated concepts = %v, want none when upsert failed", result.UpdatedConcepts)
	}
}

func TestHandleUtterance_ReplyFailureIsHardError(t *testing.T) {
	repo := &fakeMessageRepo{}
	analyzer := &fakeAnalyzer{analysis: testAnalysis()}
	profiles := &fakeProfiles{profile: types.Profile{Cognition: 46, Affect: 42, Behavior: 55}}
	graph := &fakeGraph{}
	replies := &fakeProvider{err: errors.New("model overloaded")}
	s := newTestChatService(t, repo, analyzer, profiles, graph, replies)

	_, err := s.HandleUtterance(context.Background(), uuid.New(), "hello", ChatOptions{})
	if err == nil {
		t.Fatal("expected an error when reply generation fails")
	}
	for _, msg := range repo.messages {
		if msg.Role == types.RoleAssistant {
			t.Error("no assistant message should be persisted on reply failure")
		}
	}
}

func TestHandleUtterance_EmptyUtterance(t *testing.T) {
	s := newTestChatService(t, &fakeMessageRepo{}, &fakeAnalyzer{}, &fakeProfiles{}, &fakeGraph{}, &fakeProvider{})

	if _, err := s.HandleUtterance(context.Background(), uuid.New(), "   ", ChatOptions{}); err == nil {
		t.Fatal("expected an error for a blank utterance")
	}
}

func TestHandleUtterance_ProfileFailureAborts(t *testing.T) {
	repo := &fakeMessageRepo{}
	s := newTestChatService(t, repo,
		&fakeAnalyzer{analysis: testAnalysis()},
		&fakeProfiles{err: errors.New("db gone")},
		&fakeGraph{}, &fakeProvider{response: "hi"})

	if _, err := s.HandleUtterance(context.Background(), uuid.New(), "hello", ChatOptions{}); err == nil {
		t.Fatal("expected an error when the profile update fails")
	}
}

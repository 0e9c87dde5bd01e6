package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/apierr"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/types"
)

// Narrow views of the collaborating services, so the pipeline can be
// exercised with fakes.

type UtteranceAnalyzer interface {
	Analyze(ctx context.Context, utterance string, history []types.ContextMessage) types.Analysis
}

type ProfileUpdater interface {
	ApplyDelta(ctx context.Context, learnerID uuid.UUID, delta types.ProfileDelta) (types.Profile, error)
}

type ConceptGraph interface {
	UpsertConcepts(ctx context.Context, learnerID string, names []string) (int, error)
	GetGraph(ctx context.Context, learnerID string) (types.GraphData, error)
}

type ReplyGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// ChatService runs the full utterance pipeline: persist, analyze, update the
// profile ledger, update the concept graph, and generate the tutoring reply.
// Graph failures are tolerated; only a failed reply generation aborts the
// turn.
type ChatService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.ChatMessageRepo
	analyzer    UtteranceAnalyzer
	profiles    ProfileUpdater
	graph       ConceptGraph
	replies     ReplyGenerator
	defaults    PersonalizationOptions
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.ChatMessageRepo,
	analyzer UtteranceAnalyzer,
	profiles ProfileUpdater,
	graph ConceptGraph,
	replies ReplyGenerator,
	defaults PersonalizationOptions,
) *ChatService {
	return &ChatService{
		db:          db,
		log:         log.With("service", "ChatService"),
		messageRepo: messageRepo,
		analyzer:    analyzer,
		profiles:    profiles,
		graph:       graph,
		replies:     replies,
		defaults:    defaults,
	}
}

const historyContextLimit = 5

// ChatOptions are the per-turn personalization overrides from the request.
type ChatOptions struct {
	Language     string
	ResearchMode *bool
}

// HandleUtterance processes one learner turn end to end and returns the
// assistant reply together with the analysis, the updated profile and the
// concept names touched this turn.
func (s *ChatService) HandleUtterance(ctx context.Context, learnerID uuid.UUID, text string, opts ChatOptions) (*types.ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_request", fmt.Errorf("utterance is empty"))
	}

	if _, err := s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		LearnerID: learnerID,
		Role:      types.RoleUser,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("persist learner message: %w", err)
	}

	history, err := s.recentContext(ctx, learnerID)
	if err != nil {
		s.log.Warn("Failed to load conversation history, analyzing without context", "error", err)
		history = nil
	}

	analysis := s.analyzer.Analyze(ctx, text, history)
	s.log.Info("Utterance analyzed",
		"learner_id", learnerID,
		"intent", analysis.Intent,
		"emotion", analysis.Emotion,
		"concepts", len(analysis.DetectedConcepts),
	)

	profile, err := s.profiles.ApplyDelta(ctx, learnerID, analysis.Delta)
	if err != nil {
		return nil, fmt.Errorf("apply profile delta: %w", err)
	}

	touched := map[string]bool{}
	if len(analysis.DetectedConcepts) > 0 {
		if _, err := s.graph.UpsertConcepts(ctx, learnerID.String(), analysis.DetectedConcepts); err != nil {
			s.log.Warn("Concept graph update failed, continuing", "error", err)
		} else {
			for _, name := range analysis.DetectedConcepts {
				touched[name] = true
			}
		}
	}

	graphData, err := s.graph.GetGraph(ctx, learnerID.String())
	if err != nil {
		s.log.Warn("Failed to load concept graph, personalizing without it", "error", err)
		graphData = types.GraphData{}
	}

	personalization := NewPersonalizationService(s.resolveOptions(opts))
	systemPrompt := personalization.BuildSystemPrompt(profile, analysis.Emotion, graphData)
	userPrompt := buildReplyPrompt(history, text)

	reply, err := s.replies.Complete(ctx, systemPrompt, userPrompt, 0.7, 500)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	if _, err := s.messageRepo.Create(ctx, nil, &types.ChatMessage{
		LearnerID: learnerID,
		Role:      types.RoleAssistant,
		Text:      reply,
		Timestamp: time.Now().UTC(),
		Analysis:  analysisJSON,
	}); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	// Second graph pass over the raw utterance without context. Catches
	// concepts the context-aware analysis attributed to earlier turns.
	second := s.analyzer.Analyze(ctx, text, nil)
	if len(second.DetectedConcepts) > 0 {
		if _, err := s.graph.UpsertConcepts(ctx, learnerID.String(), second.DetectedConcepts); err != nil {
			s.log.Warn("Second concept graph pass failed, continuing", "error", err)
		} else {
			for _, name := range second.DetectedConcepts {
				touched[name] = true
			}
		}
	}

	updated := make([]string, 0, len(touched))
	for name := range touched {
		updated = append(updated, name)
	}

	return &types.ChatResult{
		Message:         reply,
		Analysis:        analysis,
		UpdatedProfile:  profile,
		UpdatedConcepts: updated,
	}, nil
}

// History returns the learner's recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, learnerID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.GetRecent(ctx, nil, learnerID, limit)
}

func (s *ChatService) resolveOptions(opts ChatOptions) PersonalizationOptions {
	resolved := s.defaults
	if opts.Language != "" {
		resolved.Language = opts.Language
	}
	if opts.ResearchMode != nil {
		resolved.ResearchMode = *opts.ResearchMode
	}
	return resolved
}

func (s *ChatService) recentContext(ctx context.Context, learnerID uuid.UUID) ([]types.ContextMessage, error) {
	messages, err := s.messageRepo.GetRecent(ctx, nil, learnerID, historyContextLimit)
	if err != nil {
		return nil, err
	}
	history := make([]types.ContextMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, types.ContextMessage{Role: string(msg.Role), Text: msg.Text})
	}
	return history, nil
}

func buildReplyPrompt(history []types.ContextMessage, text string) string {
	var sb strings.Builder
	if len(history) > 0 {
		tail := history
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		sb.WriteString("Conversation so far:\n")
		for _, msg := range tail {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Learner's message:\n")
	sb.WriteString(text)
	return sb.String()
}

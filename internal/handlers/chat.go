package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/services"
)

type ChatHandler struct {
	log            *logger.Logger
	chatService    *services.ChatService
	profileService *services.ProfileService
}

func NewChatHandler(log *logger.Logger, chatService *services.ChatService, profileService *services.ProfileService) *ChatHandler {
	return &ChatHandler{
		log:            log.With("handler", "ChatHandler"),
		chatService:    chatService,
		profileService: profileService,
	}
}

type chatRequest struct {
	LearnerID    string `json:"learnerId" binding:"required"`
	Message      string `json:"message" binding:"required"`
	Language     string `json:"language"`
	ResearchMode *bool  `json:"researchMode"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	learner, err := h.profileService.ResolveLearner(c.Request.Context(), req.LearnerID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "learner_resolution_failed", err)
		return
	}

	result, err := h.chatService.HandleUtterance(c.Request.Context(), learner.ID, req.Message, services.ChatOptions{
		Language:     req.Language,
		ResearchMode: req.ResearchMode,
	})
	if err != nil {
		h.log.Error("chat pipeline failed", "learner_id", learner.ID, "error", err)
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, result)
}

type historyMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func (h *ChatHandler) History(c *gin.Context) {
	learner, err := h.profileService.ResolveLearner(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "learner_resolution_failed", err)
		return
	}
	limit := 50
	messages, err := h.chatService.History(c.Request.Context(), learner.ID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	out := make([]historyMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, historyMessage{
			ID:        msg.ID.String(),
			Role:      string(msg.Role),
			Text:      msg.Text,
			Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	RespondOK(c, gin.H{"messages": out})
}

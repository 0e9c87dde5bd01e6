package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/services"
	"github.com/yungbote/cognisync-backend/internal/types"
)

var errNoAxes = errors.New("at least one of cognition, affect, behavior is required")

type ProfileHandler struct {
	log            *logger.Logger
	profileService *services.ProfileService
}

func NewProfileHandler(log *logger.Logger, profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{log: log.With("handler", "ProfileHandler"), profileService: profileService}
}

// Get returns the current profile. The path segment takes the same free-form
// learner reference as the chat endpoint; the `source` query parameter
// selects the system view (default) or the learner's own latest override.
func (h *ProfileHandler) Get(c *gin.Context) {
	learner, err := h.profileService.ResolveLearner(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "learner_resolution_failed", err)
		return
	}
	source := types.ProfileSourceSystem
	if c.Query("source") == string(types.ProfileSourceUser) {
		source = types.ProfileSourceUser
	}
	profile, err := h.profileService.Current(c.Request.Context(), learner.ID, source)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "profile_load_failed", err)
		return
	}
	RespondOK(c, profile)
}

type overrideRequest struct {
	Cognition   *int    `json:"cognition"`
	Affect      *int    `json:"affect"`
	Behavior    *int    `json:"behavior"`
	Comment     *string `json:"comment"`
	TrustRating *int    `json:"trustRating"`
}

// Override records a user-asserted profile. At least one axis is required.
func (h *ProfileHandler) Override(c *gin.Context) {
	learner, err := h.profileService.ResolveLearner(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "learner_resolution_failed", err)
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Cognition == nil && req.Affect == nil && req.Behavior == nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errNoAxes)
		return
	}
	profile, err := h.profileService.ApplyUserOverride(
		c.Request.Context(), learner.ID,
		req.Cognition, req.Affect, req.Behavior,
		req.Comment, req.TrustRating,
	)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "override_failed", err)
		return
	}
	RespondOK(c, profile)
}

func (h *ProfileHandler) Changes(c *gin.Context) {
	learner, err := h.profileService.ResolveLearner(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "learner_resolution_failed", err)
		return
	}
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}
	changes, err := h.profileService.RecentChanges(c.Request.Context(), learner.ID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "changes_failed", err)
		return
	}
	RespondOK(c, gin.H{"changes": changes})
}

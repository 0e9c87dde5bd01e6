package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/services"
)

type GraphHandler struct {
	log          *logger.Logger
	graphService *services.GraphService
}

func NewGraphHandler(log *logger.Logger, graphService *services.GraphService) *GraphHandler {
	return &GraphHandler{log: log.With("handler", "GraphHandler"), graphService: graphService}
}

func (h *GraphHandler) Get(c *gin.Context) {
	graph, err := h.graphService.GetGraph(c.Request.Context(), c.Param("learnerId"))
	if err != nil {
		respondGraphError(c, err)
		return
	}
	RespondOK(c, graph)
}

type createNodeRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Mastery     float64 `json:"mastery"`
}

func (h *GraphHandler) CreateNode(c *gin.Context) {
	var req createNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	node, err := h.graphService.CreateNode(c.Request.Context(), c.Param("learnerId"), req.Name, req.Description, req.Mastery)
	if err != nil {
		respondGraphError(c, err)
		return
	}
	RespondOK(c, node)
}

type updateNodeRequest struct {
	Mastery   *float64 `json:"mastery"`
	IsFlagged *bool    `json:"isFlagged"`
}

func (h *GraphHandler) UpdateNode(c *gin.Context) {
	var req updateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	node, err := h.graphService.UpdateNode(c.Request.Context(), c.Param("learnerId"), c.Param("nodeId"), req.Mastery, req.IsFlagged)
	if err != nil {
		respondGraphError(c, err)
		return
	}
	if node == nil {
		RespondError(c, http.StatusNotFound, "node_not_found", errors.New("node not in learner graph"))
		return
	}
	RespondOK(c, node)
}

func (h *GraphHandler) DeleteNode(c *gin.Context) {
	deleted, err := h.graphService.DeleteNode(c.Request.Context(), c.Param("learnerId"), c.Param("nodeId"))
	if err != nil {
		respondGraphError(c, err)
		return
	}
	if !deleted {
		RespondError(c, http.StatusNotFound, "node_not_found", errors.New("node not in learner graph"))
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type edgeRequest struct {
	Source string `json:"source" binding:"required"`
	Target string `json:"target" binding:"required"`
}

func (h *GraphHandler) CreateEdge(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.graphService.CreateEdge(c.Request.Context(), c.Param("learnerId"), req.Source, req.Target); err != nil {
		respondGraphError(c, err)
		return
	}
	RespondOK(c, gin.H{"created": true})
}

func (h *GraphHandler) DeleteEdge(c *gin.Context) {
	var req edgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	deleted, err := h.graphService.DeleteEdge(c.Request.Context(), c.Param("learnerId"), req.Source, req.Target)
	if err != nil {
		respondGraphError(c, err)
		return
	}
	if !deleted {
		RespondError(c, http.StatusNotFound, "edge_not_found", errors.New("relation does not exist"))
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func respondGraphError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotPermitted):
		RespondError(c, http.StatusForbidden, "not_permitted", err)
	case errors.Is(err, services.ErrGraphUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "graph_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "graph_failed", err)
	}
}

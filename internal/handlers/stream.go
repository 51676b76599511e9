package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
	"github.com/lumenflow/lumenflow-backend/internal/services"
)

type StreamHandler struct {
	log       *logger.Logger
	workItems services.WorkItemService
}

func NewStreamHandler(log *logger.Logger, workItems services.WorkItemService) *StreamHandler {
	return &StreamHandler{
		log:       log.With("handler", "StreamHandler"),
		workItems: workItems,
	}
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	streamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	stream, err := h.workItems.GetStream(c.Request.Context(), streamID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, stream)
}

func (h *StreamHandler) ListWorkItems(c *gin.Context) {
	streamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	items, err := h.workItems.ListByStream(c.Request.Context(), streamID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

type createWorkItemRequest struct {
	Title          string       `json:"title" binding:"required"`
	Description    string       `json:"description"`
	EnergyLevel    int          `json:"energy_level"`
	Depth          domain.Depth `json:"depth"`
	StreamPosition float64      `json:"stream_position"`
	Tags           []string     `json:"tags"`
}

func (h *StreamHandler) CreateWorkItem(c *gin.Context) {
	streamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	var req createWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	item, err := h.workItems.Create(c.Request.Context(), domainagg.CreateWorkItemInput{
		StreamID:       streamID,
		Title:          req.Title,
		Description:    req.Description,
		EnergyLevel:    req.EnergyLevel,
		Depth:          req.Depth,
		StreamPosition: req.StreamPosition,
		Tags:           req.Tags,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, item)
}

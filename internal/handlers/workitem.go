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

type WorkItemHandler struct {
	log       *logger.Logger
	workItems services.WorkItemService
}

func NewWorkItemHandler(log *logger.Logger, workItems services.WorkItemService) *WorkItemHandler {
	return &WorkItemHandler{
		log:       log.With("handler", "WorkItemHandler"),
		workItems: workItems,
	}
}

func (h *WorkItemHandler) itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *WorkItemHandler) Get(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	view, err := h.workItems.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, view)
}

type transitionRequest struct {
	TargetState domain.EnergyState `json:"target_state" binding:"required"`
}

func (h *WorkItemHandler) Transition(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	res, err := h.workItems.Transition(c.Request.Context(), id, req.TargetState)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"item": res.Item, "no_op": res.NoOp})
}

type energyRequest struct {
	Level       *int                `json:"level" binding:"required"`
	TargetState *domain.EnergyState `json:"target_state"`
}

// Energy updates the level and, when target_state accompanies it, performs
// the explicit transition in a second engine call. An explicit target
// suppresses the automatic kindling promotion.
func (h *WorkItemHandler) Energy(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	var req energyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	explicit := req.TargetState != nil
	res, err := h.workItems.SetEnergyLevel(c.Request.Context(), id, *req.Level, explicit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if explicit {
		tres, terr := h.workItems.Transition(c.Request.Context(), id, *req.TargetState)
		if terr != nil {
			RespondDomainError(c, terr)
			return
		}
		RespondOK(c, gin.H{"item": tres.Item, "auto_transitioned": false})
		return
	}
	RespondOK(c, gin.H{"item": res.Item, "auto_transitioned": res.AutoTransitioned})
}

type contributorRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *WorkItemHandler) AddContributor(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	var req contributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	contributor, err := h.workItems.AddContributor(c.Request.Context(), id, req.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, contributor)
}

func (h *WorkItemHandler) RemoveContributor(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	res, rmErr := h.workItems.RemoveContributor(c.Request.Context(), id, userID)
	if rmErr != nil {
		RespondDomainError(c, rmErr)
		return
	}
	RespondOK(c, gin.H{"removed": res.Removed, "promoted_user_id": res.PromotedUserID})
}

type startTimerRequest struct {
	Description string `json:"description"`
}

func (h *WorkItemHandler) StartTimer(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	var req startTimerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
			return
		}
	}
	entry, err := h.workItems.StartTimer(c.Request.Context(), id, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, entry)
}

func (h *WorkItemHandler) StopTimer(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	entry, err := h.workItems.StopTimer(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, entry)
}

func (h *WorkItemHandler) Duration(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	total, err := h.workItems.TotalDuration(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"total_duration_seconds": total})
}

func (h *WorkItemHandler) ListTimeEntries(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	entries, err := h.workItems.ListTimeEntries(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}

func (h *WorkItemHandler) DeleteTimeEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	if err := h.workItems.DeleteTimeEntry(c.Request.Context(), entryID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *WorkItemHandler) Delete(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	res, err := h.workItems.Delete(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": res.Deleted, "was_crystallized": res.WasCrystallized})
}

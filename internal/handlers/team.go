package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
	"github.com/lumenflow/lumenflow-backend/internal/services"
)

type TeamHandler struct {
	log       *logger.Logger
	provision services.ProvisionService
}

func NewTeamHandler(log *logger.Logger, provision services.ProvisionService) *TeamHandler {
	return &TeamHandler{
		log:       log.With("handler", "TeamHandler"),
		provision: provision,
	}
}

type createTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	team, err := h.provision.CreateTeam(c.Request.Context(), req.Name)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, team)
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	team, err := h.provision.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, team)
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role"`
}

func (h *TeamHandler) AddMember(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	member, err := h.provision.AddTeamMember(c.Request.Context(), teamID, req.UserID, req.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, member)
}

type createStreamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *TeamHandler) CreateStream(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	var req createStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	stream, err := h.provision.CreateStream(c.Request.Context(), teamID, req.Name, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, stream)
}

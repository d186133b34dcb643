// Package http provides HTTP handlers for campaign and execution operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/onekeel/swarm/internal/campaign/http/dto"
	"github.com/onekeel/swarm/internal/campaign/usecase"
	apperrors "github.com/onekeel/swarm/internal/errors"
	"github.com/onekeel/swarm/internal/httputil"
)

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignUseCase usecase.UseCase
	logger          *slog.Logger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignUseCase usecase.UseCase, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaignUseCase: campaignUseCase,
		logger:          logger,
	}
}

// RegisterRoutes registers the campaign and execution routes on a gin group.
func (h *CampaignHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/campaigns", h.CreateCampaign)
	group.GET("/campaigns", h.ListCampaigns)
	group.GET("/campaigns/:id", h.GetCampaign)
	group.PUT("/campaigns/:id", h.UpdateCampaign)
	group.POST("/campaigns/:id/executions", h.TriggerExecution)
	group.GET("/campaigns/:id/executions", h.ListExecutions)
	group.GET("/executions/:id", h.GetExecution)
	group.POST("/executions/:id/stop", h.StopExecution)
}

// CreateCampaign handles campaign creation
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	campaign, err := h.campaignUseCase.CreateCampaign(c.Request.Context(), dto.ToCreateCampaignInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCampaignResponse(campaign))
}

// GetCampaign handles fetching a single campaign by id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	campaign, err := h.campaignUseCase.GetCampaign(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignResponse(campaign))
}

// ListCampaigns handles listing campaigns with pagination
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	campaigns, err := h.campaignUseCase.ListCampaigns(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListCampaignsResponse(campaigns))
}

// UpdateCampaign handles campaign updates
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	campaign, err := h.campaignUseCase.UpdateCampaign(c.Request.Context(), id, dto.ToUpdateCampaignInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignResponse(campaign))
}

// TriggerExecution handles enrolling an audience and enqueueing an execution
func (h *CampaignHandler) TriggerExecution(c *gin.Context) {
	campaignID, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.TriggerExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	execution, err := h.campaignUseCase.TriggerExecution(c.Request.Context(), campaignID, dto.ToTriggerExecutionInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.ToExecutionStatusResponse(execution))
}

// ListExecutions handles listing a campaign's executions with pagination
func (h *CampaignHandler) ListExecutions(c *gin.Context) {
	campaignID, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	executions, err := h.campaignUseCase.ListExecutions(c.Request.Context(), campaignID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListExecutionsResponse(executions))
}

// GetExecution handles fetching an execution with its recipient records
func (h *CampaignHandler) GetExecution(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	detail, err := h.campaignUseCase.GetExecution(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToExecutionDetailResponse(detail))
}

// StopExecution handles requesting cancellation of a running execution
func (h *CampaignHandler) StopExecution(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.campaignUseCase.StopExecution(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "invalid id parameter")
	}
	return id, nil
}

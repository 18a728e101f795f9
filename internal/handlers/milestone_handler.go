package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
}

func NewMilestoneHandler(milestoneService *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// @Summary List Milestones
// @Description Get all milestones for a project
// @Tags Milestones
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /projects/{project_id}/milestones [get]
func (h *MilestoneHandler) Index(c *gin.Context) {
	milestones, err := h.milestoneService.FindByProject(c.Request.Context(), parseIDParam(c, "project_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, m := range milestones {
		responses = append(responses, m.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"milestones": responses})
}

type CreateMilestoneRequest struct {
	MilestoneCode     string           `json:"milestone_code" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	PlannedDate       *time.Time       `json:"planned_date"`
	ProgressThreshold *decimal.Decimal `json:"progress_threshold"`
	Remark            *string          `json:"remark"`
}

// @Summary Create Milestone
// @Description Create a pending milestone under a project
// @Tags Milestones
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body CreateMilestoneRequest true "Milestone Data"
// @Success 201 {object} models.MilestoneResponse
// @Security BearerAuth
// @Router /projects/{project_id}/milestones [post]
func (h *MilestoneHandler) Create(c *gin.Context) {
	var req CreateMilestoneRequest
	if err := BindNestedOrFlat(c, "milestone", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	milestone, err := h.milestoneService.CreateMilestone(c.Request.Context(), parseIDParam(c, "project_id"), services.CreateMilestoneInput{
		MilestoneCode:     req.MilestoneCode,
		Name:              req.Name,
		PlannedDate:       req.PlannedDate,
		ProgressThreshold: req.ProgressThreshold,
		Remark:            req.Remark,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"milestone": milestone.ToResponse()})
}

type UpdateMilestoneRequest struct {
	Name              *string          `json:"name"`
	PlannedDate       *time.Time       `json:"planned_date"`
	ProgressThreshold *decimal.Decimal `json:"progress_threshold"`
	Remark            *string          `json:"remark"`
}

// @Summary Update Milestone
// @Description Update a milestone's planning fields
// @Tags Milestones
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param milestone_id path int true "Milestone ID"
// @Param request body UpdateMilestoneRequest true "Milestone Data"
// @Success 200 {object} models.MilestoneResponse
// @Security BearerAuth
// @Router /projects/{project_id}/milestones/{milestone_id} [put]
func (h *MilestoneHandler) Update(c *gin.Context) {
	var req UpdateMilestoneRequest
	if err := BindNestedOrFlat(c, "milestone", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	milestone, err := h.milestoneService.UpdateMilestone(c.Request.Context(), parseIDParam(c, "project_id"), parseIDParam(c, "milestone_id"), services.UpdateMilestoneInput{
		Name:              req.Name,
		PlannedDate:       req.PlannedDate,
		ProgressThreshold: req.ProgressThreshold,
		Remark:            req.Remark,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": milestone.ToResponse()})
}

type CompleteMilestoneRequest struct {
	ActualDate  *time.Time `json:"actual_date"`
	AutoInvoice *bool      `json:"auto_invoice"`
}

// @Summary Complete Milestone
// @Description Mark a milestone completed. Linked pending payment
// plans are invoiced automatically unless auto_invoice is false.
// @Tags Milestones
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param milestone_id path int true "Milestone ID"
// @Param request body CompleteMilestoneRequest false "Completion Data"
// @Success 200 {object} models.MilestoneResponse
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /projects/{project_id}/milestones/{milestone_id}/complete [post]
func (h *MilestoneHandler) Complete(c *gin.Context) {
	var req CompleteMilestoneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	autoInvoice := true
	if req.AutoInvoice != nil {
		autoInvoice = *req.AutoInvoice
	}

	milestone, err := h.milestoneService.CompleteMilestone(c.Request.Context(), parseIDParam(c, "project_id"), parseIDParam(c, "milestone_id"), req.ActualDate, autoInvoice, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": milestone.ToResponse()})
}

// @Summary Cancel Milestone
// @Description Cancel a pending milestone
// @Tags Milestones
// @Produce json
// @Param project_id path int true "Project ID"
// @Param milestone_id path int true "Milestone ID"
// @Success 200 {object} models.MilestoneResponse
// @Security BearerAuth
// @Router /projects/{project_id}/milestones/{milestone_id}/cancel [post]
func (h *MilestoneHandler) Cancel(c *gin.Context) {
	milestone, err := h.milestoneService.CancelMilestone(c.Request.Context(), parseIDParam(c, "project_id"), parseIDParam(c, "milestone_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestone": milestone.ToResponse()})
}

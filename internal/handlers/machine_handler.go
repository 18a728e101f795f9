package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type MachineHandler struct {
	machineService *services.MachineService
}

func NewMachineHandler(machineService *services.MachineService) *MachineHandler {
	return &MachineHandler{machineService: machineService}
}

// @Summary List Machines
// @Description Get a paginated list of machines under a project
// @Tags Machines
// @Produce json
// @Param project_id path int true "Project ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param stage query string false "Filter by stage"
// @Param health query string false "Filter by health"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /projects/{project_id}/machines [get]
func (h *MachineHandler) Index(c *gin.Context) {
	query := listQueryFromContext(c)
	if stage := c.Query("stage"); stage != "" {
		query.Filters["stage"] = stage
	}
	if health := c.Query("health"); health != "" {
		query.Filters["health"] = health
	}

	machines, total, err := h.machineService.List(c.Request.Context(), parseIDParam(c, "project_id"), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, m := range machines {
		responses = append(responses, m.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"machines": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Machine
// @Description Get a machine by ID
// @Tags Machines
// @Produce json
// @Param project_id path int true "Project ID"
// @Param machine_id path int true "Machine ID"
// @Success 200 {object} models.MachineResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{project_id}/machines/{machine_id} [get]
func (h *MachineHandler) Show(c *gin.Context) {
	machine, err := h.machineService.FindByID(c.Request.Context(), parseIDParam(c, "machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"machine": machine.ToResponse()})
}

type CreateMachineRequest struct {
	Name        string          `json:"name" binding:"required"`
	Stage       string          `json:"stage"`
	Health      string          `json:"health"`
	ProgressPct decimal.Decimal `json:"progress_pct"`
	Remark      *string         `json:"remark"`
}

// @Summary Create Machine
// @Description Create a machine under a project. The machine code is
// generated from the project code and the next sequence number.
// @Tags Machines
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body CreateMachineRequest true "Machine Data"
// @Success 201 {object} models.MachineResponse
// @Security BearerAuth
// @Router /projects/{project_id}/machines [post]
func (h *MachineHandler) Create(c *gin.Context) {
	var req CreateMachineRequest
	if err := BindNestedOrFlat(c, "machine", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := h.machineService.CreateMachine(c.Request.Context(), parseIDParam(c, "project_id"), services.CreateMachineInput{
		Name:        req.Name,
		Stage:       req.Stage,
		Health:      req.Health,
		ProgressPct: req.ProgressPct,
		Remark:      req.Remark,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"machine": machine.ToResponse()})
}

type UpdateMachineStatusRequest struct {
	Stage       *string          `json:"stage"`
	Health      *string          `json:"health"`
	ProgressPct *decimal.Decimal `json:"progress_pct"`
	Remark      *string          `json:"remark"`
}

// @Summary Update Machine Status
// @Description Update a machine's stage, health or progress. Stages
// only move forward; S9 is terminal.
// @Tags Machines
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param machine_id path int true "Machine ID"
// @Param request body UpdateMachineStatusRequest true "Status Data"
// @Success 200 {object} models.MachineResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{project_id}/machines/{machine_id}/status [put]
func (h *MachineHandler) UpdateStatus(c *gin.Context) {
	var req UpdateMachineStatusRequest
	if err := BindNestedOrFlat(c, "machine", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := h.machineService.UpdateMachineStatus(c.Request.Context(), parseIDParam(c, "machine_id"), services.UpdateMachineStatusInput{
		Stage:       req.Stage,
		Health:      req.Health,
		ProgressPct: req.ProgressPct,
		Remark:      req.Remark,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"machine": machine.ToResponse()})
}

// @Summary Delete Machine
// @Description Delete a machine and refresh the project aggregate
// @Tags Machines
// @Produce json
// @Param project_id path int true "Project ID"
// @Param machine_id path int true "Machine ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{project_id}/machines/{machine_id} [delete]
func (h *MachineHandler) Delete(c *gin.Context) {
	if err := h.machineService.DeleteMachine(c.Request.Context(), parseIDParam(c, "machine_id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "机台已删除"})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type ProjectHandler struct {
	projectService     *services.ProjectService
	aggregationService *services.AggregationService
}

func NewProjectHandler(projectService *services.ProjectService, aggregationService *services.AggregationService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, aggregationService: aggregationService}
}

// @Summary List Projects
// @Description Get a paginated list of projects
// @Tags Projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param stage query string false "Filter by stage"
// @Param health query string false "Filter by health"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) Index(c *gin.Context) {
	query := listQueryFromContext(c)
	if stage := c.Query("stage"); stage != "" {
		query.Filters["stage"] = stage
	}
	if health := c.Query("health"); health != "" {
		query.Filters["health"] = health
	}

	projects, total, err := h.projectService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, p := range projects {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Project
// @Description Get a project with its machines, milestones and payment plans
// @Tags Projects
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} models.ProjectResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{project_id} [get]
func (h *ProjectHandler) Show(c *gin.Context) {
	project, err := h.projectService.FindByIDWithDetails(c.Request.Context(), parseIDParam(c, "project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project.ToResponse()})
}

type CreateProjectRequest struct {
	Name           string          `json:"name" binding:"required"`
	CustomerID     *uint           `json:"customer_id"`
	ContractID     *uint           `json:"contract_id"`
	ManagerID      *uint           `json:"manager_id"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	ContractAmount decimal.Decimal `json:"contract_amount"`
	PlannedStart   *time.Time      `json:"planned_start"`
	PlannedEnd     *time.Time      `json:"planned_end"`
	Description    *string         `json:"description"`
}

// @Summary Create Project
// @Description Create a new project with a generated code
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project Data"
// @Success 201 {object} models.ProjectResponse
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := BindNestedOrFlat(c, "project", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:           req.Name,
		CustomerID:     req.CustomerID,
		ContractID:     req.ContractID,
		ManagerID:      req.ManagerID,
		BudgetAmount:   req.BudgetAmount,
		ContractAmount: req.ContractAmount,
		PlannedStart:   req.PlannedStart,
		PlannedEnd:     req.PlannedEnd,
		Description:    req.Description,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": project.ToResponse()})
}

type UpdateProjectRequest struct {
	Name           *string          `json:"name"`
	CustomerID     *uint            `json:"customer_id"`
	ManagerID      *uint            `json:"manager_id"`
	BudgetAmount   *decimal.Decimal `json:"budget_amount"`
	ActualCost     *decimal.Decimal `json:"actual_cost"`
	ContractAmount *decimal.Decimal `json:"contract_amount"`
	PlannedStart   *time.Time       `json:"planned_start"`
	PlannedEnd     *time.Time       `json:"planned_end"`
	Description    *string          `json:"description"`
}

// @Summary Update Project
// @Description Update a project's planning and cost fields. Stage,
// health and progress are derived from machines and cannot be set here.
// @Tags Projects
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body UpdateProjectRequest true "Project Data"
// @Success 200 {object} models.ProjectResponse
// @Security BearerAuth
// @Router /projects/{project_id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req UpdateProjectRequest
	if err := BindNestedOrFlat(c, "project", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), parseIDParam(c, "project_id"), services.UpdateProjectInput{
		Name:           req.Name,
		CustomerID:     req.CustomerID,
		ManagerID:      req.ManagerID,
		BudgetAmount:   req.BudgetAmount,
		ActualCost:     req.ActualCost,
		ContractAmount: req.ContractAmount,
		PlannedStart:   req.PlannedStart,
		PlannedEnd:     req.PlannedEnd,
		Description:    req.Description,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project.ToResponse()})
}

// @Summary Delete Project
// @Description Delete a project
// @Tags Projects
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /projects/{project_id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.DeleteProject(c.Request.Context(), parseIDParam(c, "project_id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "项目已删除"})
}

// @Summary Project Machine Summary
// @Description Get machine stage/health distribution and average progress for a project
// @Tags Projects
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} services.MachineSummary
// @Security BearerAuth
// @Router /projects/{project_id}/summary [get]
func (h *ProjectHandler) Summary(c *gin.Context) {
	summary, err := h.aggregationService.GetProjectMachineSummary(c.Request.Context(), parseIDParam(c, "project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// @Summary Refresh Project Aggregation
// @Description Recompute the project's stage, health and progress from its machines
// @Tags Projects
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} models.ProjectResponse
// @Security BearerAuth
// @Router /projects/{project_id}/refresh [post]
func (h *ProjectHandler) Refresh(c *gin.Context) {
	project, err := h.aggregationService.UpdateProjectAggregation(c.Request.Context(), parseIDParam(c, "project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project.ToResponse()})
}

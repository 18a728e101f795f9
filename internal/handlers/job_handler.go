package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexmach/erp-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Background Job Status
// @Description Get background worker queue statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexmach/erp-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// @Summary Dashboard Overview
// @Description Get project, pipeline and finance rollups for the dashboard
// @Tags Reports
// @Produce json
// @Success 200 {object} services.DashboardOverview
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	overview, err := h.reportService.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// @Summary Receivables Report
// @Description Get open receivable amounts per contract, largest first
// @Tags Reports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reports/receivables [get]
func (h *ReportHandler) Receivables(c *gin.Context) {
	rows, err := h.reportService.GetReceivables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receivables": rows})
}

// @Summary Export Dashboard CSV
// @Description Download the dashboard overview as a CSV file
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/dashboard/export [get]
func (h *ReportHandler) ExportDashboard(c *gin.Context) {
	data, filename, err := h.exportService.ExportDashboardCSV(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Export Projects XLSX
// @Description Download the project list as an Excel workbook
// @Tags Reports
// @Produce application/octet-stream
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/projects/export [get]
func (h *ReportHandler) ExportProjects(c *gin.Context) {
	data, filename, err := h.exportService.ExportProjectsXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// @Summary Export Receivables XLSX
// @Description Download the receivables report as an Excel workbook
// @Tags Reports
// @Produce application/octet-stream
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/receivables/export [get]
func (h *ReportHandler) ExportReceivables(c *gin.Context) {
	data, filename, err := h.exportService.ExportReceivablesXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// @Summary Export Project Machines CSV
// @Description Download a project's machine list as a CSV file
// @Tags Reports
// @Produce text/csv
// @Param project_id path int true "Project ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/projects/{project_id}/machines/export [get]
func (h *ReportHandler) ExportMachines(c *gin.Context) {
	data, filename, err := h.exportService.ExportMachinesCSV(c.Request.Context(), parseIDParam(c, "project_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

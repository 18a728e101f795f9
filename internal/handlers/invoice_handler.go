package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// @Summary List Invoices
// @Description Get a paginated list of invoices
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := listQueryFromContext(c)
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}
	if contractID := c.Query("contract_id"); contractID != "" {
		query.Filters["contract_id"] = contractID
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, inv := range invoices {
		responses = append(responses, inv.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Invoice
// @Description Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{invoice_id} [get]
func (h *InvoiceHandler) Show(c *gin.Context) {
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), parseIDParam(c, "invoice_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Issue Invoice
// @Description Issue a draft invoice, resetting its issue and due dates
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Security BearerAuth
// @Router /invoices/{invoice_id}/issue [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	invoice, err := h.invoiceService.Issue(c.Request.Context(), parseIDParam(c, "invoice_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Mark Invoice Paid
// @Description Mark an issued invoice as paid
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Security BearerAuth
// @Router /invoices/{invoice_id}/mark_paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), parseIDParam(c, "invoice_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Void Invoice
// @Description Void an invoice, releasing its payment plan for re-invoicing
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} models.InvoiceResponse
// @Security BearerAuth
// @Router /invoices/{invoice_id}/void [post]
func (h *InvoiceHandler) Void(c *gin.Context) {
	invoice, err := h.invoiceService.Void(c.Request.Context(), parseIDParam(c, "invoice_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Download Invoice PDF
// @Description Generate and download an invoice as a PDF document
// @Tags Invoices
// @Produce application/pdf
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /invoices/{invoice_id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	data, filename, err := h.invoiceService.GeneratePDF(c.Request.Context(), parseIDParam(c, "invoice_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

// PipelineHandler covers the sales funnel: leads, opportunities and
// quotes.
type PipelineHandler struct {
	salesService *services.SalesService
}

func NewPipelineHandler(salesService *services.SalesService) *PipelineHandler {
	return &PipelineHandler{salesService: salesService}
}

// @Summary List Leads
// @Description Get a paginated list of leads
// @Tags Pipeline
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /leads [get]
func (h *PipelineHandler) ListLeads(c *gin.Context) {
	query := listQueryFromContext(c)
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}

	leads, total, err := h.salesService.ListLeads(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads": leads,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type CreateLeadRequest struct {
	CompanyName string  `json:"company_name" binding:"required"`
	ContactName string  `json:"contact_name"`
	Phone       string  `json:"phone"`
	Source      string  `json:"source"`
	Requirement *string `json:"requirement"`
	OwnerID     *uint   `json:"owner_id"`
}

// @Summary Create Lead
// @Description Register a new inquiry at the top of the pipeline
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param request body CreateLeadRequest true "Lead Data"
// @Success 201 {object} models.Lead
// @Security BearerAuth
// @Router /leads [post]
func (h *PipelineHandler) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := BindNestedOrFlat(c, "lead", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.salesService.CreateLead(c.Request.Context(), services.CreateLeadInput{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Source:      req.Source,
		Requirement: req.Requirement,
		OwnerID:     req.OwnerID,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lead": lead})
}

// @Summary Qualify Lead
// @Description Mark a new lead as qualified
// @Tags Pipeline
// @Produce json
// @Param lead_id path int true "Lead ID"
// @Success 200 {object} models.Lead
// @Security BearerAuth
// @Router /leads/{lead_id}/qualify [post]
func (h *PipelineHandler) QualifyLead(c *gin.Context) {
	lead, err := h.salesService.QualifyLead(c.Request.Context(), parseIDParam(c, "lead_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// @Summary Drop Lead
// @Description Mark a lead as invalid
// @Tags Pipeline
// @Produce json
// @Param lead_id path int true "Lead ID"
// @Success 200 {object} models.Lead
// @Security BearerAuth
// @Router /leads/{lead_id}/drop [post]
func (h *PipelineHandler) DropLead(c *gin.Context) {
	lead, err := h.salesService.DropLead(c.Request.Context(), parseIDParam(c, "lead_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

type ConvertLeadRequest struct {
	CustomerID      *uint           `json:"customer_id"`
	OpportunityName string          `json:"opportunity_name" binding:"required"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
}

// @Summary Convert Lead
// @Description Convert a qualified lead into a customer and an opportunity
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param lead_id path int true "Lead ID"
// @Param request body ConvertLeadRequest true "Conversion Data"
// @Success 201 {object} models.Opportunity
// @Security BearerAuth
// @Router /leads/{lead_id}/convert [post]
func (h *PipelineHandler) ConvertLead(c *gin.Context) {
	var req ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opp, err := h.salesService.ConvertLead(c.Request.Context(), parseIDParam(c, "lead_id"), req.CustomerID, req.OpportunityName, req.ExpectedAmount, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"opportunity": opp})
}

// @Summary List Opportunities
// @Description Get a paginated list of opportunities
// @Tags Pipeline
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param stage query string false "Filter by stage"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /opportunities [get]
func (h *PipelineHandler) ListOpportunities(c *gin.Context) {
	query := listQueryFromContext(c)
	if stage := c.Query("stage"); stage != "" {
		query.Filters["stage"] = stage
	}

	opps, total, err := h.salesService.ListOpportunities(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities": opps,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type AdvanceOpportunityRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// @Summary Advance Opportunity
// @Description Move an opportunity to a new pipeline stage
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param opportunity_id path int true "Opportunity ID"
// @Param request body AdvanceOpportunityRequest true "Stage"
// @Success 200 {object} models.Opportunity
// @Security BearerAuth
// @Router /opportunities/{opportunity_id}/advance [post]
func (h *PipelineHandler) AdvanceOpportunity(c *gin.Context) {
	var req AdvanceOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opp, err := h.salesService.AdvanceOpportunity(c.Request.Context(), parseIDParam(c, "opportunity_id"), req.Stage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

// @Summary List Quotes
// @Description Get a paginated list of quotes
// @Tags Pipeline
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /quotes [get]
func (h *PipelineHandler) ListQuotes(c *gin.Context) {
	query := listQueryFromContext(c)
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}

	quotes, total, err := h.salesService.ListQuotes(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quotes": quotes,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type CreateQuoteRequest struct {
	OpportunityID uint            `json:"opportunity_id" binding:"required"`
	TotalAmount   decimal.Decimal `json:"total_amount" binding:"required"`
	ValidUntil    *time.Time      `json:"valid_until"`
	Note          *string         `json:"note"`
}

// @Summary Create Quote
// @Description Create a draft quote against an open opportunity
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param request body CreateQuoteRequest true "Quote Data"
// @Success 201 {object} models.Quote
// @Security BearerAuth
// @Router /quotes [post]
func (h *PipelineHandler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := BindNestedOrFlat(c, "quote", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.salesService.CreateQuote(c.Request.Context(), services.CreateQuoteInput{
		OpportunityID: req.OpportunityID,
		TotalAmount:   req.TotalAmount,
		ValidUntil:    req.ValidUntil,
		Note:          req.Note,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// @Summary Send Quote
// @Description Send a draft quote to the customer
// @Tags Pipeline
// @Produce json
// @Param quote_id path int true "Quote ID"
// @Success 200 {object} models.Quote
// @Security BearerAuth
// @Router /quotes/{quote_id}/send [post]
func (h *PipelineHandler) SendQuote(c *gin.Context) {
	quote, err := h.salesService.SendQuote(c.Request.Context(), parseIDParam(c, "quote_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type PaymentPlanSpecRequest struct {
	Name          string          `json:"name" binding:"required"`
	PlannedAmount decimal.Decimal `json:"planned_amount" binding:"required"`
	PlannedDate   *time.Time      `json:"planned_date"`
}

type AcceptQuoteRequest struct {
	ContractName string                   `json:"contract_name" binding:"required"`
	PaymentPlans []PaymentPlanSpecRequest `json:"payment_plans"`
}

// @Summary Accept Quote
// @Description Accept a sent quote, winning the opportunity and
// creating a draft contract with its payment plans.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param quote_id path int true "Quote ID"
// @Param request body AcceptQuoteRequest true "Acceptance Data"
// @Success 201 {object} models.ContractResponse
// @Security BearerAuth
// @Router /quotes/{quote_id}/accept [post]
func (h *PipelineHandler) AcceptQuote(c *gin.Context) {
	var req AcceptQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	specs := make([]services.PaymentPlanSpec, 0, len(req.PaymentPlans))
	for _, p := range req.PaymentPlans {
		specs = append(specs, services.PaymentPlanSpec{
			Name:          p.Name,
			PlannedAmount: p.PlannedAmount,
			PlannedDate:   p.PlannedDate,
		})
	}

	contract, err := h.salesService.AcceptQuote(c.Request.Context(), parseIDParam(c, "quote_id"), req.ContractName, specs, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contract": contract.ToResponse()})
}

// @Summary Reject Quote
// @Description Mark a sent quote as rejected
// @Tags Pipeline
// @Produce json
// @Param quote_id path int true "Quote ID"
// @Success 200 {object} models.Quote
// @Security BearerAuth
// @Router /quotes/{quote_id}/reject [post]
func (h *PipelineHandler) RejectQuote(c *gin.Context) {
	quote, err := h.salesService.RejectQuote(c.Request.Context(), parseIDParam(c, "quote_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

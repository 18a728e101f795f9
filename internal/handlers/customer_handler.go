package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type CustomerHandler struct {
	salesService *services.SalesService
}

func NewCustomerHandler(salesService *services.SalesService) *CustomerHandler {
	return &CustomerHandler{salesService: salesService}
}

// @Summary List Customers
// @Description Get a paginated list of customers
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) Index(c *gin.Context) {
	query := listQueryFromContext(c)
	if level := c.Query("level"); level != "" {
		query.Filters["level"] = level
	}

	customers, total, err := h.salesService.ListCustomers(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, cu := range customers {
		responses = append(responses, cu.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Customer
// @Description Get a customer by ID
// @Tags Customers
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Success 200 {object} models.CustomerResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{customer_id} [get]
func (h *CustomerHandler) Show(c *gin.Context) {
	customer, err := h.salesService.FindCustomerByID(c.Request.Context(), parseIDParam(c, "customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

type CustomerRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	TaxNo       string `json:"tax_no"`
	Level       string `json:"level"`
	Industry    string `json:"industry"`
}

func (r CustomerRequest) toInput() services.CreateCustomerInput {
	return services.CreateCustomerInput{
		Name:        r.Name,
		ContactName: r.ContactName,
		Phone:       r.Phone,
		Email:       r.Email,
		Address:     r.Address,
		TaxNo:       r.TaxNo,
		Level:       r.Level,
		Industry:    r.Industry,
	}
}

// @Summary Create Customer
// @Description Create a customer with a generated code
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body CustomerRequest true "Customer Data"
// @Success 201 {object} models.CustomerResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := BindNestedOrFlat(c, "customer", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.salesService.CreateCustomer(c.Request.Context(), req.toInput(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"customer": customer.ToResponse()})
}

// @Summary Update Customer
// @Description Update a customer's profile fields
// @Tags Customers
// @Accept json
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Param request body CustomerRequest true "Customer Data"
// @Success 200 {object} models.CustomerResponse
// @Security BearerAuth
// @Router /customers/{customer_id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	var req CustomerRequest
	if err := BindNestedOrFlat(c, "customer", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.salesService.UpdateCustomer(c.Request.Context(), parseIDParam(c, "customer_id"), req.toInput(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

// @Summary Customer 360 View
// @Description Get a customer's full history: contracts, projects,
// invoices and rollup totals.
// @Tags Customers
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Success 200 {object} models.Customer360
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{customer_id}/360 [get]
func (h *CustomerHandler) View360(c *gin.Context) {
	view, err := h.salesService.GetCustomer360(c.Request.Context(), parseIDParam(c, "customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

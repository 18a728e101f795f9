package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/apexmach/erp-api/internal/middleware"
	"github.com/apexmach/erp-api/internal/services"
)

type ContractHandler struct {
	contractService *services.ContractService
}

func NewContractHandler(contractService *services.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// @Summary List Contracts
// @Description Get a paginated list of contracts
// @Tags Contracts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contracts [get]
func (h *ContractHandler) Index(c *gin.Context) {
	query := listQueryFromContext(c)
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query.Filters["customer_id"] = customerID
	}

	contracts, total, err := h.contractService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, contract := range contracts {
		responses = append(responses, contract.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Contract
// @Description Get a contract with its customer, payment plans and invoices
// @Tags Contracts
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{contract_id} [get]
func (h *ContractHandler) Show(c *gin.Context) {
	contract, err := h.contractService.FindByIDWithDetails(c.Request.Context(), parseIDParam(c, "contract_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

type CreateContractRequest struct {
	CustomerID uint            `json:"customer_id" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	SignedDate *time.Time      `json:"signed_date"`
	Note       *string         `json:"note"`
	OwnerID    *uint           `json:"owner_id"`
}

// @Summary Create Contract
// @Description Create a draft contract with a generated code
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body CreateContractRequest true "Contract Data"
// @Success 201 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := BindNestedOrFlat(c, "contract", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contractService.CreateContract(c.Request.Context(), services.CreateContractInput{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Amount:     req.Amount,
		SignedDate: req.SignedDate,
		Note:       req.Note,
		OwnerID:    req.OwnerID,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contract": contract.ToResponse()})
}

// @Summary Submit Contract
// @Description Submit a draft or rejected contract for approval
// @Tags Contracts
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts/{contract_id}/submit [post]
func (h *ContractHandler) Submit(c *gin.Context) {
	contract, err := h.contractService.Submit(c.Request.Context(), parseIDParam(c, "contract_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

// @Summary Approve Contract
// @Description Approve a submitted contract
// @Tags Contracts
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts/{contract_id}/approve [post]
func (h *ContractHandler) Approve(c *gin.Context) {
	contract, err := h.contractService.Approve(c.Request.Context(), parseIDParam(c, "contract_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

type RejectContractRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reject Contract
// @Description Reject a submitted contract with a reason
// @Tags Contracts
// @Accept json
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Param request body RejectContractRequest true "Rejection Reason"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts/{contract_id}/reject [post]
func (h *ContractHandler) Reject(c *gin.Context) {
	var req RejectContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contractService.Reject(c.Request.Context(), parseIDParam(c, "contract_id"), req.Reason, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

type ActivateContractRequest struct {
	ProjectName  string          `json:"project_name" binding:"required"`
	ManagerID    *uint           `json:"manager_id"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	PlannedStart *time.Time      `json:"planned_start"`
	PlannedEnd   *time.Time      `json:"planned_end"`
}

// @Summary Activate Contract
// @Description Put an approved contract into force, creating its
// delivery project in the same transaction.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Param request body ActivateContractRequest true "Project Data"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contracts/{contract_id}/activate [post]
func (h *ContractHandler) Activate(c *gin.Context) {
	var req ActivateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, project, err := h.contractService.Activate(c.Request.Context(), parseIDParam(c, "contract_id"), services.ActivateInput{
		ProjectName:  req.ProjectName,
		ManagerID:    req.ManagerID,
		BudgetAmount: req.BudgetAmount,
		PlannedStart: req.PlannedStart,
		PlannedEnd:   req.PlannedEnd,
	}, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract": contract.ToResponse(),
		"project":  project.ToResponse(),
	})
}

// @Summary Cancel Contract
// @Description Cancel a contract that is not yet active
// @Tags Contracts
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts/{contract_id}/cancel [post]
func (h *ContractHandler) Cancel(c *gin.Context) {
	contract, err := h.contractService.Cancel(c.Request.Context(), parseIDParam(c, "contract_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

// @Summary Close Contract
// @Description Close an active contract after delivery
// @Tags Contracts
// @Produce json
// @Param contract_id path int true "Contract ID"
// @Success 200 {object} models.ContractResponse
// @Security BearerAuth
// @Router /contracts/{contract_id}/close [post]
func (h *ContractHandler) Close(c *gin.Context) {
	contract, err := h.contractService.Close(c.Request.Context(), parseIDParam(c, "contract_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract.ToResponse()})
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract represents a signed sales contract with a customer. Approving
// an active contract is what converts a won deal into a delivery project.
type Contract struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ContractCode    string          `gorm:"uniqueIndex;not null" json:"contract_code"`
	GUID            string          `gorm:"column:guid;index" json:"guid"`
	CustomerID      uint            `gorm:"not null;index" json:"customer_id"`
	QuoteID         *uint           `gorm:"index" json:"quote_id"`
	OwnerID         *uint           `gorm:"index" json:"owner_id"`
	Name            string          `gorm:"not null" json:"name"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status          string          `gorm:"default:draft;index" json:"status"`
	SignedDate      *time.Time      `gorm:"type:date" json:"signed_date"`
	ApprovedAt      *time.Time      `gorm:"index" json:"approved_at"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason"`
	Note            *string         `gorm:"type:text" json:"note"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Associations
	Customer     *Customer            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Quote        *Quote               `gorm:"foreignKey:QuoteID" json:"quote,omitempty"`
	Owner        *User                `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	PaymentPlans []ProjectPaymentPlan `gorm:"foreignKey:ContractID" json:"payment_plans,omitempty"`
	Invoices     []Invoice            `gorm:"foreignKey:ContractID" json:"invoices,omitempty"`
}

// TableName specifies the table name for Contract
func (Contract) TableName() string {
	return "contracts"
}

// Contract status constants
const (
	ContractStatusDraft     = "draft"
	ContractStatusSubmitted = "submitted"
	ContractStatusApproved  = "approved"
	ContractStatusActive    = "active"
	ContractStatusRejected  = "rejected"
	ContractStatusCancelled = "cancelled"
	ContractStatusClosed    = "closed"
)

// MaySubmit returns true if contract can transition to submitted
func (c *Contract) MaySubmit() bool {
	return c.Status == ContractStatusDraft || c.Status == ContractStatusRejected
}

// MayApprove returns true if contract can be approved
func (c *Contract) MayApprove() bool {
	return c.Status == ContractStatusSubmitted
}

// MayReject returns true if contract can be rejected
func (c *Contract) MayReject() bool {
	return c.Status == ContractStatusSubmitted
}

// MayActivate returns true if contract can be activated
func (c *Contract) MayActivate() bool {
	return c.Status == ContractStatusApproved
}

// MayCancel returns true if contract can be cancelled
func (c *Contract) MayCancel() bool {
	return c.Status == ContractStatusDraft ||
		c.Status == ContractStatusSubmitted ||
		c.Status == ContractStatusRejected
}

// MayClose returns true if contract can be closed out
func (c *Contract) MayClose() bool {
	return c.Status == ContractStatusActive
}

// InvoicedAmount sums the totals of non-void invoices on the contract
func (c *Contract) InvoicedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range c.Invoices {
		if inv.Status != InvoiceStatusVoid {
			total = total.Add(inv.TotalAmount)
		}
	}
	return total
}

// ContractResponse is the JSON response format for contracts
type ContractResponse struct {
	ID              uint                  `json:"id"`
	ContractCode    string                `json:"contract_code"`
	CustomerID      uint                  `json:"customer_id"`
	CustomerName    string                `json:"customer_name,omitempty"`
	QuoteID         *uint                 `json:"quote_id"`
	Name            string                `json:"name"`
	Amount          decimal.Decimal       `json:"amount"`
	InvoicedAmount  decimal.Decimal       `json:"invoiced_amount"`
	Status          string                `json:"status"`
	SignedDate      *time.Time            `json:"signed_date"`
	ApprovedAt      *time.Time            `json:"approved_at"`
	RejectionReason *string               `json:"rejection_reason"`
	Note            *string               `json:"note"`
	PaymentPlans    []PaymentPlanResponse `json:"payment_plans,omitempty"`
	Invoices        []InvoiceResponse     `json:"invoices,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ToResponse converts Contract to ContractResponse
func (c *Contract) ToResponse() ContractResponse {
	resp := ContractResponse{
		ID:              c.ID,
		ContractCode:    c.ContractCode,
		CustomerID:      c.CustomerID,
		QuoteID:         c.QuoteID,
		Name:            c.Name,
		Amount:          c.Amount,
		InvoicedAmount:  c.InvoicedAmount(),
		Status:          c.Status,
		SignedDate:      c.SignedDate,
		ApprovedAt:      c.ApprovedAt,
		RejectionReason: c.RejectionReason,
		Note:            c.Note,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Customer != nil {
		resp.CustomerName = c.Customer.Name
	}
	for _, plan := range c.PaymentPlans {
		resp.PaymentPlans = append(resp.PaymentPlans, plan.ToResponse())
	}
	for _, inv := range c.Invoices {
		resp.Invoices = append(resp.Invoices, inv.ToResponse())
	}
	return resp
}

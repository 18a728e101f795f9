package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents a VAT invoice issued against a contract. Invoices
// created by the milestone cascade start in draft status with the fixed
// 13% tax rate applied.
type Invoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceCode string          `gorm:"uniqueIndex;not null" json:"invoice_code"`
	ContractID  uint            `gorm:"not null;index" json:"contract_id"`
	ProjectID   uint            `gorm:"index" json:"project_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"tax_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Status      string          `gorm:"default:DRAFT;index" json:"status"`
	IssueDate   time.Time       `gorm:"type:date" json:"issue_date"`
	DueDate     time.Time       `gorm:"type:date" json:"due_date"`
	BuyerName   string          `json:"buyer_name"`
	BuyerTaxNo  string          `json:"buyer_tax_no"`
	Remark      *string         `gorm:"type:text" json:"remark"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Associations
	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Project  *Project  `gorm:"foreignKey:ProjectID" json:"-"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice status constants
const (
	InvoiceStatusDraft  = "DRAFT"
	InvoiceStatusIssued = "ISSUED"
	InvoiceStatusPaid   = "PAID"
	InvoiceStatusVoid   = "VOID"
)

// DefaultTaxRatePct is the VAT rate applied by the milestone cascade.
var DefaultTaxRatePct = decimal.NewFromInt(13)

// MayIssue returns true if the invoice can be issued
func (i *Invoice) MayIssue() bool {
	return i.Status == InvoiceStatusDraft
}

// MayVoid returns true if the invoice can be voided
func (i *Invoice) MayVoid() bool {
	return i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusIssued
}

// MayMarkPaid returns true if the invoice can be marked paid
func (i *Invoice) MayMarkPaid() bool {
	return i.Status == InvoiceStatusIssued
}

// IsOverdue returns true if an issued invoice is past its due date
func (i *Invoice) IsOverdue() bool {
	return i.Status == InvoiceStatusIssued && time.Now().After(i.DueDate)
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID          uint            `json:"id"`
	InvoiceCode string          `json:"invoice_code"`
	ContractID  uint            `json:"contract_id"`
	ProjectID   uint            `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Overdue     bool            `json:"overdue"`
	IssueDate   time.Time       `json:"issue_date"`
	DueDate     time.Time       `json:"due_date"`
	BuyerName   string          `json:"buyer_name"`
	BuyerTaxNo  string          `json:"buyer_tax_no"`
	Remark      *string         `json:"remark"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	return InvoiceResponse{
		ID:          i.ID,
		InvoiceCode: i.InvoiceCode,
		ContractID:  i.ContractID,
		ProjectID:   i.ProjectID,
		Amount:      i.Amount,
		TaxRate:     i.TaxRate,
		TaxAmount:   i.TaxAmount,
		TotalAmount: i.TotalAmount,
		Status:      i.Status,
		Overdue:     i.IsOverdue(),
		IssueDate:   i.IssueDate,
		DueDate:     i.DueDate,
		BuyerName:   i.BuyerName,
		BuyerTaxNo:  i.BuyerTaxNo,
		Remark:      i.Remark,
		CreatedAt:   i.CreatedAt,
	}
}

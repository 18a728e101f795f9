package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a buying organization.
type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CustomerCode string    `gorm:"uniqueIndex;not null" json:"customer_code"`
	Name         string    `gorm:"not null" json:"name"`
	ContactName  string    `json:"contact_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	TaxNo        string    `json:"tax_no"`
	Level        string    `gorm:"default:C" json:"level"`
	Industry     string    `json:"industry"`
	CreatedBy    *uint     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Associations
	Projects  []Project  `gorm:"foreignKey:CustomerID" json:"projects,omitempty"`
	Contracts []Contract `gorm:"foreignKey:CustomerID" json:"contracts,omitempty"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Customer level constants
const (
	CustomerLevelA = "A"
	CustomerLevelB = "B"
	CustomerLevelC = "C"
)

// CustomerResponse is the JSON response format for customers
type CustomerResponse struct {
	ID           uint      `json:"id"`
	CustomerCode string    `json:"customer_code"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	TaxNo        string    `json:"tax_no"`
	Level        string    `json:"level"`
	Industry     string    `json:"industry"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts Customer to CustomerResponse
func (c *Customer) ToResponse() CustomerResponse {
	return CustomerResponse{
		ID:           c.ID,
		CustomerCode: c.CustomerCode,
		Name:         c.Name,
		ContactName:  c.ContactName,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		TaxNo:        c.TaxNo,
		Level:        c.Level,
		Industry:     c.Industry,
		CreatedAt:    c.CreatedAt,
	}
}

// Customer360 is a full relationship rollup of one customer: active
// projects, contracts and open receivables in one view.
type Customer360 struct {
	Customer           CustomerResponse   `json:"customer"`
	ProjectCount       int                `json:"project_count"`
	ContractCount      int                `json:"contract_count"`
	TotalContracted    decimal.Decimal    `json:"total_contracted"`
	TotalInvoiced      decimal.Decimal    `json:"total_invoiced"`
	OpenInvoiceCount   int                `json:"open_invoice_count"`
	OverdueInvoices    int                `json:"overdue_invoices"`
	Projects           []ProjectResponse  `json:"projects"`
	Contracts          []ContractResponse `json:"contracts"`
	LastContractSigned *time.Time         `json:"last_contract_signed"`
}

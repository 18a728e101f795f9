package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectPaymentPlan represents one scheduled contractual payment.
// Plans are created with the contract and linked to a project once the
// contract activates. A plan may be tied to a milestone, in which case
// completing that milestone auto-generates a draft invoice against the
// plan's contract. Once InvoiceID is set the plan is never re-invoiced.
type ProjectPaymentPlan struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	ProjectID     uint             `gorm:"index" json:"project_id"`
	ContractID    uint             `gorm:"not null;index" json:"contract_id"`
	MilestoneID   *uint            `gorm:"index" json:"milestone_id"`
	Name          string           `json:"name"`
	Status        string           `gorm:"default:PENDING;index" json:"status"`
	PlannedAmount decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"planned_amount"`
	PlannedDate   *time.Time       `gorm:"type:date" json:"planned_date"`
	InvoiceID     *uint            `gorm:"index" json:"invoice_id"`
	InvoiceNo     string           `json:"invoice_no"`
	InvoiceDate   *time.Time       `gorm:"type:date" json:"invoice_date"`
	InvoiceAmount *decimal.Decimal `gorm:"type:decimal(14,2)" json:"invoice_amount"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Associations
	Project   Project           `gorm:"foreignKey:ProjectID" json:"-"`
	Contract  *Contract         `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Milestone *ProjectMilestone `gorm:"foreignKey:MilestoneID" json:"-"`
	Invoice   *Invoice          `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// TableName specifies the table name for ProjectPaymentPlan
func (ProjectPaymentPlan) TableName() string {
	return "project_payment_plans"
}

// Payment plan status constants
const (
	PaymentPlanStatusPending   = "PENDING"
	PaymentPlanStatusInvoiced  = "INVOICED"
	PaymentPlanStatusPaid      = "PAID"
	PaymentPlanStatusCancelled = "CANCELLED"
)

// MayInvoice returns true if the plan is still waiting for its invoice
func (p *ProjectPaymentPlan) MayInvoice() bool {
	return p.Status == PaymentPlanStatusPending && p.InvoiceID == nil
}

// PaymentPlanResponse is the JSON response format for payment plans
type PaymentPlanResponse struct {
	ID            uint             `json:"id"`
	ProjectID     uint             `json:"project_id"`
	ContractID    uint             `json:"contract_id"`
	MilestoneID   *uint            `json:"milestone_id"`
	Name          string           `json:"name"`
	Status        string           `json:"status"`
	PlannedAmount decimal.Decimal  `json:"planned_amount"`
	PlannedDate   *time.Time       `json:"planned_date"`
	InvoiceID     *uint            `json:"invoice_id"`
	InvoiceNo     string           `json:"invoice_no,omitempty"`
	InvoiceDate   *time.Time       `json:"invoice_date"`
	InvoiceAmount *decimal.Decimal `json:"invoice_amount"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ToResponse converts ProjectPaymentPlan to PaymentPlanResponse
func (p *ProjectPaymentPlan) ToResponse() PaymentPlanResponse {
	return PaymentPlanResponse{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		ContractID:    p.ContractID,
		MilestoneID:   p.MilestoneID,
		Name:          p.Name,
		Status:        p.Status,
		PlannedAmount: p.PlannedAmount,
		PlannedDate:   p.PlannedDate,
		InvoiceID:     p.InvoiceID,
		InvoiceNo:     p.InvoiceNo,
		InvoiceDate:   p.InvoiceDate,
		InvoiceAmount: p.InvoiceAmount,
		CreatedAt:     p.CreatedAt,
	}
}

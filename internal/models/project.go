package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project represents a non-standard automation equipment project.
// Stage, health and progress are derived fields: they always mirror the
// aggregate over the project's machines and are rewritten by the
// aggregation service on every machine mutation.
type Project struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProjectCode    string          `gorm:"uniqueIndex;not null" json:"project_code"`
	Name           string          `gorm:"not null" json:"name"`
	CustomerID     *uint           `gorm:"index" json:"customer_id"`
	ContractID     *uint           `gorm:"index" json:"contract_id"`
	ManagerID      *uint           `gorm:"index" json:"manager_id"`
	Stage          string          `gorm:"default:S1;index" json:"stage"`
	Health         string          `gorm:"default:H1;index" json:"health"`
	ProgressPct    decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"progress_pct"`
	BudgetAmount   decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"budget_amount"`
	ActualCost     decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"actual_cost"`
	ContractAmount decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"contract_amount"`
	PlannedStart   *time.Time      `gorm:"type:date" json:"planned_start"`
	PlannedEnd     *time.Time      `gorm:"type:date" json:"planned_end"`
	Description    *string         `gorm:"type:text" json:"description"`
	CreatedBy      *uint           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Customer   *Customer          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Contract   *Contract          `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Manager    *User              `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Machines   []Machine          `gorm:"foreignKey:ProjectID" json:"machines,omitempty"`
	Milestones []ProjectMilestone `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// CostVariance returns budget minus actual cost
func (p *Project) CostVariance() decimal.Decimal {
	return p.BudgetAmount.Sub(p.ActualCost)
}

// ProjectResponse is the JSON response format for projects
type ProjectResponse struct {
	ID             uint            `json:"id"`
	ProjectCode    string          `json:"project_code"`
	Name           string          `json:"name"`
	CustomerID     *uint           `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	ContractID     *uint           `json:"contract_id"`
	Stage          string          `json:"stage"`
	Health         string          `json:"health"`
	ProgressPct    decimal.Decimal `json:"progress_pct"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	ActualCost     decimal.Decimal `json:"actual_cost"`
	ContractAmount decimal.Decimal `json:"contract_amount"`
	CostVariance   decimal.Decimal `json:"cost_variance"`
	MachineCount   int             `json:"machine_count"`
	PlannedStart   *time.Time      `json:"planned_start"`
	PlannedEnd     *time.Time      `json:"planned_end"`
	Description    *string         `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToResponse converts Project to ProjectResponse
func (p *Project) ToResponse() ProjectResponse {
	resp := ProjectResponse{
		ID:             p.ID,
		ProjectCode:    p.ProjectCode,
		Name:           p.Name,
		CustomerID:     p.CustomerID,
		ContractID:     p.ContractID,
		Stage:          p.Stage,
		Health:         p.Health,
		ProgressPct:    p.ProgressPct,
		BudgetAmount:   p.BudgetAmount,
		ActualCost:     p.ActualCost,
		ContractAmount: p.ContractAmount,
		CostVariance:   p.CostVariance(),
		MachineCount:   len(p.Machines),
		PlannedStart:   p.PlannedStart,
		PlannedEnd:     p.PlannedEnd,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Customer != nil {
		resp.CustomerName = p.Customer.Name
	}
	return resp
}

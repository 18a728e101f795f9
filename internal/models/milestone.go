package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectMilestone represents a delivery milestone inside a project.
// Completing a milestone may cascade into invoicing the payment plans
// attached to it.
type ProjectMilestone struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	ProjectID         uint             `gorm:"not null;index;uniqueIndex:idx_project_milestone_code" json:"project_id"`
	MilestoneCode     string           `gorm:"not null;uniqueIndex:idx_project_milestone_code" json:"milestone_code"`
	Name              string           `gorm:"not null" json:"name"`
	Status            string           `gorm:"default:PENDING;index" json:"status"`
	PlannedDate       *time.Time       `gorm:"type:date" json:"planned_date"`
	ActualDate        *time.Time       `gorm:"type:date" json:"actual_date"`
	ProgressThreshold *decimal.Decimal `gorm:"type:decimal(5,2)" json:"progress_threshold"`
	Remark            *string          `gorm:"type:text" json:"remark"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	// Associations
	Project      Project              `gorm:"foreignKey:ProjectID" json:"-"`
	PaymentPlans []ProjectPaymentPlan `gorm:"foreignKey:MilestoneID" json:"payment_plans,omitempty"`
}

// TableName specifies the table name for ProjectMilestone
func (ProjectMilestone) TableName() string {
	return "project_milestones"
}

// Milestone status constants
const (
	MilestoneStatusPending   = "PENDING"
	MilestoneStatusCompleted = "COMPLETED"
	MilestoneStatusCancelled = "CANCELLED"
)

// IsCompleted returns true if the milestone has been completed
func (m *ProjectMilestone) IsCompleted() bool {
	return m.Status == MilestoneStatusCompleted
}

// MayComplete returns true if the milestone can transition to completed
func (m *ProjectMilestone) MayComplete() bool {
	return m.Status == MilestoneStatusPending
}

// MayCancel returns true if the milestone can be cancelled
func (m *ProjectMilestone) MayCancel() bool {
	return m.Status == MilestoneStatusPending
}

// MilestoneResponse is the JSON response format for milestones
type MilestoneResponse struct {
	ID                uint             `json:"id"`
	ProjectID         uint             `json:"project_id"`
	MilestoneCode     string           `json:"milestone_code"`
	Name              string           `json:"name"`
	Status            string           `json:"status"`
	PlannedDate       *time.Time       `json:"planned_date"`
	ActualDate        *time.Time       `json:"actual_date"`
	ProgressThreshold *decimal.Decimal `json:"progress_threshold"`
	Remark            *string          `json:"remark"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ToResponse converts ProjectMilestone to MilestoneResponse
func (m *ProjectMilestone) ToResponse() MilestoneResponse {
	return MilestoneResponse{
		ID:                m.ID,
		ProjectID:         m.ProjectID,
		MilestoneCode:     m.MilestoneCode,
		Name:              m.Name,
		Status:            m.Status,
		PlannedDate:       m.PlannedDate,
		ActualDate:        m.ActualDate,
		ProgressThreshold: m.ProgressThreshold,
		Remark:            m.Remark,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

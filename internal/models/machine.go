package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machine represents a single equipment unit inside a project. A
// non-standard automation project usually ships several machines, each
// tracked through its own lifecycle stage and health.
type Machine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"not null;index;uniqueIndex:idx_project_machine_code" json:"project_id"`
	MachineCode string          `gorm:"not null;uniqueIndex:idx_project_machine_code" json:"machine_code"`
	MachineNo   int             `gorm:"not null" json:"machine_no"`
	Name        string          `json:"name"`
	Stage       string          `gorm:"default:S1;index" json:"stage"`
	Health      string          `gorm:"default:H1;index" json:"health"`
	ProgressPct decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"progress_pct"`
	Remark      *string         `gorm:"type:text" json:"remark"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Associations
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}

// TableName specifies the table name for Machine
func (Machine) TableName() string {
	return "machines"
}

// Machine lifecycle stage constants (S9 is terminal)
const (
	StageS1 = "S1" // 方案设计
	StageS2 = "S2" // 机械设计
	StageS3 = "S3" // 电气设计
	StageS4 = "S4" // 采购备料
	StageS5 = "S5" // 装配
	StageS6 = "S6" // 调试
	StageS7 = "S7" // 厂内验收
	StageS8 = "S8" // 现场安装
	StageS9 = "S9" // 终验收
)

// Machine health constants
const (
	HealthNormal  = "H1" // 正常
	HealthAtRisk  = "H2" // 有风险
	HealthBlocked = "H3" // 受阻
	HealthClosed  = "H4" // 已收尾
)

// StagePriority orders lifecycle stages; transitions may only move to an
// equal or higher priority.
var StagePriority = map[string]int{
	StageS1: 1,
	StageS2: 2,
	StageS3: 3,
	StageS4: 4,
	StageS5: 5,
	StageS6: 6,
	StageS7: 7,
	StageS8: 8,
	StageS9: 9,
}

// HealthPriority orders health codes by severity (higher = worse, H4 sits
// outside the severity scale and means fully closed out).
var HealthPriority = map[string]int{
	HealthNormal:  1,
	HealthAtRisk:  2,
	HealthBlocked: 3,
	HealthClosed:  4,
}

// ValidStage returns true if the stage code is recognized
func ValidStage(stage string) bool {
	_, ok := StagePriority[stage]
	return ok
}

// ValidHealth returns true if the health code is recognized
func ValidHealth(health string) bool {
	_, ok := HealthPriority[health]
	return ok
}

// IsTerminalStage returns true for the final acceptance stage
func (m *Machine) IsTerminalStage() bool {
	return m.Stage == StageS9
}

// MachineResponse is the JSON response format for machines
type MachineResponse struct {
	ID          uint            `json:"id"`
	ProjectID   uint            `json:"project_id"`
	MachineCode string          `json:"machine_code"`
	MachineNo   int             `json:"machine_no"`
	Name        string          `json:"name"`
	Stage       string          `json:"stage"`
	Health      string          `json:"health"`
	ProgressPct decimal.Decimal `json:"progress_pct"`
	Remark      *string         `json:"remark"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToResponse converts Machine to MachineResponse
func (m *Machine) ToResponse() MachineResponse {
	return MachineResponse{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		MachineCode: m.MachineCode,
		MachineNo:   m.MachineNo,
		Name:        m.Name,
		Stage:       m.Stage,
		Health:      m.Health,
		ProgressPct: m.ProgressPct,
		Remark:      m.Remark,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

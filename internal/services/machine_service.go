package services

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// Stage transition failure messages. These are the contract of
// ValidateStageTransition and are asserted verbatim by API consumers.
const (
	msgInvalidCurrentStage = "无效的当前阶段"
	msgInvalidTargetStage  = "无效的目标阶段"
	msgTerminalStage       = "S9是终态，无法变更阶段"
	msgStageRegressionFmt  = "阶段只能向前推进，不能从 %s 回退到 %s"
)

// MachineService manages equipment units inside a project. Every write
// that touches stage, health or progress re-runs the project
// aggregation so the project row never drifts from its machines.
type MachineService struct {
	repo        repository.MachineRepository
	projectRepo repository.ProjectRepository
	aggregation *AggregationService
	auditSvc    *AuditService
}

// NewMachineService creates a new machine service
func NewMachineService(
	repo repository.MachineRepository,
	projectRepo repository.ProjectRepository,
	aggregation *AggregationService,
	auditSvc *AuditService,
) *MachineService {
	return &MachineService{
		repo:        repo,
		projectRepo: projectRepo,
		aggregation: aggregation,
		auditSvc:    auditSvc,
	}
}

// ValidateStageTransition checks a stage change against the linear
// S1..S9 machine: both codes must be recognized, S9 is terminal even
// for self-transitions, and the stage may never move backwards.
// Self-transitions below S9 are allowed.
func ValidateStageTransition(currentStage, newStage string) (bool, string) {
	currentPrio, ok := models.StagePriority[currentStage]
	if !ok {
		return false, msgInvalidCurrentStage
	}
	newPrio, ok := models.StagePriority[newStage]
	if !ok {
		return false, msgInvalidTargetStage
	}
	if currentStage == models.StageS9 {
		return false, msgTerminalStage
	}
	if newPrio < currentPrio {
		return false, fmt.Sprintf(msgStageRegressionFmt, currentStage, newStage)
	}
	return true, ""
}

// GenerateMachineCode allocates the next machine number for a project
// and formats the project-scoped code. Sequence is max(machine_no)+1;
// the composite unique index on (project_id, machine_code) is the
// backstop against a concurrent allocation of the same number.
func (s *MachineService) GenerateMachineCode(ctx context.Context, projectID uint) (string, int, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return "", 0, ErrNotFound
	}

	maxNo, err := s.repo.MaxMachineNo(ctx, projectID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read machine sequence: %w", err)
	}

	nextNo := maxNo + 1
	code := fmt.Sprintf("%s-PN%03d", project.ProjectCode, nextNo)
	return code, nextNo, nil
}

// CreateMachineInput carries caller-provided machine fields. Code and
// number are always service-generated.
type CreateMachineInput struct {
	Name        string
	Stage       string
	Health      string
	ProgressPct decimal.Decimal
	Remark      *string
}

// CreateMachine creates a machine under a project and refreshes the
// project aggregate.
func (s *MachineService) CreateMachine(ctx context.Context, projectID uint, input CreateMachineInput, actorID uint) (*models.Machine, error) {
	if input.Stage == "" {
		input.Stage = models.StageS1
	}
	if input.Health == "" {
		input.Health = models.HealthNormal
	}
	if !models.ValidStage(input.Stage) {
		return nil, newValidationError("%s: %s", msgInvalidTargetStage, input.Stage)
	}
	if !models.ValidHealth(input.Health) {
		return nil, newValidationError("无效的健康度: %s", input.Health)
	}

	code, no, err := s.GenerateMachineCode(ctx, projectID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CodeExists(ctx, projectID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}

	machine := &models.Machine{
		ProjectID:   projectID,
		MachineCode: code,
		MachineNo:   no,
		Name:        input.Name,
		Stage:       input.Stage,
		Health:      input.Health,
		ProgressPct: input.ProgressPct,
		Remark:      input.Remark,
	}

	if err := s.repo.Create(ctx, machine); err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	if _, err := s.aggregation.UpdateProjectAggregation(ctx, projectID); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "machine", machine.ID,
			fmt.Sprintf("创建机台 %s", machine.MachineCode))
	}

	return machine, nil
}

// UpdateMachineStatusInput is the single write path for machine
// lifecycle fields. Nil pointers leave the field untouched.
type UpdateMachineStatusInput struct {
	Stage       *string
	Health      *string
	ProgressPct *decimal.Decimal
	Remark      *string
}

// UpdateMachineStatus applies stage/health/progress updates to a
// machine, enforcing the forward-only stage machine, then re-aggregates
// the owning project.
func (s *MachineService) UpdateMachineStatus(ctx context.Context, id uint, input UpdateMachineStatusInput, actorID uint) (*models.Machine, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.Stage != nil {
		if ok, msg := ValidateStageTransition(machine.Stage, *input.Stage); !ok {
			return nil, &ValidationError{Message: msg}
		}
		machine.Stage = *input.Stage
	}

	if input.Health != nil {
		if !models.ValidHealth(*input.Health) {
			return nil, newValidationError("无效的健康度: %s", *input.Health)
		}
		machine.Health = *input.Health
	}

	if input.ProgressPct != nil {
		pct := *input.ProgressPct
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, &ValidationError{Message: "进度必须在 0 到 100 之间"}
		}
		machine.ProgressPct = pct
	}

	if input.Remark != nil {
		machine.Remark = input.Remark
	}

	if err := s.repo.Update(ctx, machine); err != nil {
		return nil, fmt.Errorf("failed to update machine: %w", err)
	}

	project, err := s.aggregation.UpdateProjectAggregation(ctx, machine.ProjectID)
	if err != nil {
		return nil, err
	}

	logger.Info("machine status updated",
		"machine_code", machine.MachineCode,
		"stage", machine.Stage,
		"health", machine.Health,
		"project_health", project.Health,
	)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "machine", machine.ID,
			fmt.Sprintf("更新机台 %s 状态: 阶段=%s 健康度=%s", machine.MachineCode, machine.Stage, machine.Health))
	}

	return machine, nil
}

// FindByID returns a machine by ID
func (s *MachineService) FindByID(ctx context.Context, id uint) (*models.Machine, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return machine, nil
}

// FindByProject lists all machines of a project ordered by number
func (s *MachineService) FindByProject(ctx context.Context, projectID uint) ([]models.Machine, error) {
	return s.repo.FindByProject(ctx, projectID)
}

// List returns a paginated machine listing for a project
func (s *MachineService) List(ctx context.Context, projectID uint, query *repository.ListQuery) ([]models.Machine, int64, error) {
	return s.repo.List(ctx, projectID, query)
}

// DeleteMachine removes a machine and re-aggregates the project
func (s *MachineService) DeleteMachine(ctx context.Context, id uint, actorID uint) error {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}

	if _, err := s.aggregation.UpdateProjectAggregation(ctx, machine.ProjectID); err != nil {
		return err
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionDelete, "machine", machine.ID,
			fmt.Sprintf("删除机台 %s", machine.MachineCode))
	}

	return nil
}

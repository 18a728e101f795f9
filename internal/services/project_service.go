package services

import (
	"context"
	"fmt"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/shopspring/decimal"
)

// ProjectService manages delivery projects. Lifecycle fields on the
// project row belong to the aggregation service, not to callers.
type ProjectService struct {
	repo          repository.ProjectRepository
	milestoneRepo repository.MilestoneRepository
	aggregation   *AggregationService
	auditSvc      *AuditService
}

// NewProjectService creates a new project service
func NewProjectService(
	repo repository.ProjectRepository,
	milestoneRepo repository.MilestoneRepository,
	aggregation *AggregationService,
	auditSvc *AuditService,
) *ProjectService {
	return &ProjectService{
		repo:          repo,
		milestoneRepo: milestoneRepo,
		aggregation:   aggregation,
		auditSvc:      auditSvc,
	}
}

// GenerateProjectCode allocates the next day-scoped project code. The
// per-day sequence restarts at 1 and is read as max existing suffix +1.
func (s *ProjectService) GenerateProjectCode(ctx context.Context, now time.Time) (string, error) {
	return generateProjectCode(ctx, s.repo, now)
}

// CreateProjectInput carries caller-provided project fields
type CreateProjectInput struct {
	Name           string
	CustomerID     *uint
	ContractID     *uint
	ManagerID      *uint
	BudgetAmount   decimal.Decimal
	ContractAmount decimal.Decimal
	PlannedStart   *time.Time
	PlannedEnd     *time.Time
	Description    *string
}

// CreateProject creates a project with a generated code. New projects
// start at S1/H1 with zero progress until machines exist.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput, actorID uint) (*models.Project, error) {
	code, err := s.GenerateProjectCode(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		ProjectCode:    code,
		Name:           input.Name,
		CustomerID:     input.CustomerID,
		ContractID:     input.ContractID,
		ManagerID:      input.ManagerID,
		Stage:          models.StageS1,
		Health:         models.HealthNormal,
		ProgressPct:    decimal.Zero,
		BudgetAmount:   input.BudgetAmount,
		ContractAmount: input.ContractAmount,
		PlannedStart:   input.PlannedStart,
		PlannedEnd:     input.PlannedEnd,
		Description:    input.Description,
		CreatedBy:      &actorID,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "project", project.ID,
			fmt.Sprintf("创建项目 %s", project.ProjectCode))
	}

	return project, nil
}

// UpdateProjectInput carries updatable project fields. Stage, health
// and progress are deliberately absent: those only move through machine
// updates and the aggregation service.
type UpdateProjectInput struct {
	Name           *string
	CustomerID     *uint
	ManagerID      *uint
	BudgetAmount   *decimal.Decimal
	ActualCost     *decimal.Decimal
	ContractAmount *decimal.Decimal
	PlannedStart   *time.Time
	PlannedEnd     *time.Time
	Description    *string
}

// UpdateProject edits a project's planning and cost fields
func (s *ProjectService) UpdateProject(ctx context.Context, id uint, input UpdateProjectInput, actorID uint) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.CustomerID != nil {
		project.CustomerID = input.CustomerID
	}
	if input.ManagerID != nil {
		project.ManagerID = input.ManagerID
	}
	if input.BudgetAmount != nil {
		project.BudgetAmount = *input.BudgetAmount
	}
	if input.ActualCost != nil {
		project.ActualCost = *input.ActualCost
	}
	if input.ContractAmount != nil {
		project.ContractAmount = *input.ContractAmount
	}
	if input.PlannedStart != nil {
		project.PlannedStart = input.PlannedStart
	}
	if input.PlannedEnd != nil {
		project.PlannedEnd = input.PlannedEnd
	}
	if input.Description != nil {
		project.Description = input.Description
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("更新项目失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "project", project.ID,
			fmt.Sprintf("更新项目 %s", project.ProjectCode))
	}

	return project, nil
}

// FindByID returns a project by ID
func (s *ProjectService) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return project, nil
}

// FindByIDWithDetails returns a project with machines, milestones and
// related parties preloaded.
func (s *ProjectService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return project, nil
}

// List returns a paginated project listing
func (s *ProjectService) List(ctx context.Context, query *repository.ListQuery) ([]models.Project, int64, error) {
	return s.repo.List(ctx, query)
}

// DeleteProject removes a project
func (s *ProjectService) DeleteProject(ctx context.Context, id uint, actorID uint) error {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("删除项目失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionDelete, "project", project.ID,
			fmt.Sprintf("删除项目 %s", project.ProjectCode))
	}

	return nil
}

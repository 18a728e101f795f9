package services

import (
	"context"
	"fmt"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/internal/statemachine"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractService drives contracts through their approval lifecycle.
// Activating an approved contract is what converts the deal into a
// delivery project.
type ContractService struct {
	repo            repository.ContractRepository
	transactor      repository.Transactor
	projectSvc      *ProjectService
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

// NewContractService creates a new contract service
func NewContractService(
	repo repository.ContractRepository,
	transactor repository.Transactor,
	projectSvc *ProjectService,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *ContractService {
	return &ContractService{
		repo:            repo,
		transactor:      transactor,
		projectSvc:      projectSvc,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

// CreateContractInput carries caller-provided contract fields for
// contracts created directly, outside the quote conversion path.
type CreateContractInput struct {
	CustomerID uint
	Name       string
	Amount     decimal.Decimal
	SignedDate *time.Time
	Note       *string
	OwnerID    *uint
}

// CreateContract creates a draft contract with a generated code
func (s *ContractService) CreateContract(ctx context.Context, input CreateContractInput, actorID uint) (*models.Contract, error) {
	prefix := fmt.Sprintf("CT-%s", time.Now().Format("0601"))
	maxCode, err := s.repo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract sequence: %w", err)
	}

	contract := &models.Contract{
		ContractCode: nextCode(maxCode, prefix, "%s%04d"),
		GUID:         uuid.NewString(),
		CustomerID:   input.CustomerID,
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Amount:       input.Amount,
		Status:       models.ContractStatusDraft,
		SignedDate:   input.SignedDate,
		Note:         input.Note,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("创建合同失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "contract", contract.ID,
			fmt.Sprintf("创建合同 %s", contract.ContractCode))
	}

	return contract, nil
}

// Submit puts a draft or rejected contract into the approval queue
func (s *ContractService) Submit(ctx context.Context, id uint, actorID uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Submit(ctx); err != nil {
		return nil, err
	}
	contract.RejectionReason = nil

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("更新合同失败: %w", err)
	}

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyContractSubmitted(ctx, contract)
	}
	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "contract", contract.ID,
			fmt.Sprintf("提交合同 %s 审批", contract.ContractCode))
	}

	return contract, nil
}

// Approve approves a submitted contract. Admin only, enforced by the
// route layer.
func (s *ContractService) Approve(ctx context.Context, id uint, actorID uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Approve(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	contract.ApprovedAt = &now

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("更新合同失败: %w", err)
	}

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyContractDecision(ctx, contract, true)
	}
	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionApprove, "contract", contract.ID,
			fmt.Sprintf("审批通过合同 %s", contract.ContractCode))
	}

	return contract, nil
}

// Reject sends a submitted contract back with a reason
func (s *ContractService) Reject(ctx context.Context, id uint, reason string, actorID uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Reject(ctx); err != nil {
		return nil, err
	}

	if reason != "" {
		contract.RejectionReason = &reason
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("更新合同失败: %w", err)
	}

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyContractDecision(ctx, contract, false)
	}
	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionReject, "contract", contract.ID,
			fmt.Sprintf("驳回合同 %s: %s", contract.ContractCode, reason))
	}

	return contract, nil
}

// ActivateInput parameterizes the delivery project created when an
// approved contract goes active.
type ActivateInput struct {
	ProjectName  string
	ManagerID    *uint
	BudgetAmount decimal.Decimal
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// Activate puts an approved contract into force and creates its
// delivery project in the same transaction. Payment plans created with
// the contract are linked to the new project.
func (s *ContractService) Activate(ctx context.Context, id uint, input ActivateInput, actorID uint) (*models.Contract, *models.Project, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Activate(ctx); err != nil {
		return nil, nil, err
	}

	var project *models.Project
	err = s.transactor.InTx(ctx, func(r *repository.Repositories) error {
		if err := r.Contract.Update(ctx, contract); err != nil {
			return fmt.Errorf("更新合同失败: %w", err)
		}

		code, err := generateProjectCode(ctx, r.Project, time.Now())
		if err != nil {
			return err
		}

		name := input.ProjectName
		if name == "" {
			name = contract.Name
		}

		project = &models.Project{
			ProjectCode:    code,
			Name:           name,
			CustomerID:     &contract.CustomerID,
			ContractID:     &contract.ID,
			ManagerID:      input.ManagerID,
			Stage:          models.StageS1,
			Health:         models.HealthNormal,
			ProgressPct:    decimal.Zero,
			BudgetAmount:   input.BudgetAmount,
			ContractAmount: contract.Amount,
			PlannedStart:   input.PlannedStart,
			PlannedEnd:     input.PlannedEnd,
			CreatedBy:      &actorID,
		}
		if err := r.Project.Create(ctx, project); err != nil {
			return fmt.Errorf("创建项目失败: %w", err)
		}

		plans, err := r.PaymentPlan.FindByContract(ctx, contract.ID)
		if err != nil {
			return fmt.Errorf("failed to load payment plans: %w", err)
		}
		for i := range plans {
			plan := &plans[i]
			if plan.ProjectID != 0 {
				continue
			}
			plan.ProjectID = project.ID
			if err := r.PaymentPlan.Update(ctx, plan); err != nil {
				return fmt.Errorf("更新收款计划失败: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("contract activated",
		"contract_code", contract.ContractCode,
		"project_code", project.ProjectCode,
	)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "contract", contract.ID,
			fmt.Sprintf("合同 %s 生效, 立项 %s", contract.ContractCode, project.ProjectCode))
	}

	return contract, project, nil
}

// Cancel voids a contract that never went active
func (s *ContractService) Cancel(ctx context.Context, id uint, actorID uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Cancel(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("更新合同失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "contract", contract.ID,
			fmt.Sprintf("作废合同 %s", contract.ContractCode))
	}

	return contract, nil
}

// Close closes out an active contract after delivery completes
func (s *ContractService) Close(ctx context.Context, id uint, actorID uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Close(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("更新合同失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "contract", contract.ID,
			fmt.Sprintf("结案合同 %s", contract.ContractCode))
	}

	return contract, nil
}

// FindByID returns a contract by ID
func (s *ContractService) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return contract, nil
}

// FindByIDWithDetails returns a contract with customer, payment plans
// and invoices preloaded.
func (s *ContractService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	contract, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return contract, nil
}

// List returns a paginated contract listing
func (s *ContractService) List(ctx context.Context, query *repository.ListQuery) ([]models.Contract, int64, error) {
	return s.repo.List(ctx, query)
}

// generateProjectCode allocates a day-scoped project code against the
// given repository, so it can run inside a transaction.
func generateProjectCode(ctx context.Context, projectRepo repository.ProjectRepository, now time.Time) (string, error) {
	prefix := fmt.Sprintf("PJ%s", now.Format("060102"))

	maxCode, err := projectRepo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read project sequence: %w", err)
	}

	return nextCode(maxCode, prefix, "%s%02d"), nil
}

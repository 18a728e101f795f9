package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/internal/statemachine"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// PreconditionError reports unmet milestone completion requirements.
// It aborts the transition before any mutation.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("里程碑完成条件未满足: %s", strings.Join(e.Missing, "; "))
}

// MilestoneService manages project milestones and the invoice cascade
// that fires when a milestone with payment plans completes.
type MilestoneService struct {
	repo            repository.MilestoneRepository
	transactor      repository.Transactor
	progressChecker ProgressChecker
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

// NewMilestoneService creates a new milestone service
func NewMilestoneService(
	repo repository.MilestoneRepository,
	transactor repository.Transactor,
	progressChecker ProgressChecker,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *MilestoneService {
	return &MilestoneService{
		repo:            repo,
		transactor:      transactor,
		progressChecker: progressChecker,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

// FindByID returns a milestone by ID
func (s *MilestoneService) FindByID(ctx context.Context, id uint) (*models.ProjectMilestone, error) {
	milestone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return milestone, nil
}

// FindByProject lists the milestones of a project ordered by plan date
func (s *MilestoneService) FindByProject(ctx context.Context, projectID uint) ([]models.ProjectMilestone, error) {
	return s.repo.FindByProject(ctx, projectID)
}

// CreateMilestoneInput carries caller-provided milestone fields
type CreateMilestoneInput struct {
	MilestoneCode     string
	Name              string
	PlannedDate       *time.Time
	ProgressThreshold *decimal.Decimal
	Remark            *string
}

// CreateMilestone creates a pending milestone under a project
func (s *MilestoneService) CreateMilestone(ctx context.Context, projectID uint, input CreateMilestoneInput, actorID uint) (*models.ProjectMilestone, error) {
	milestone := &models.ProjectMilestone{
		ProjectID:         projectID,
		MilestoneCode:     input.MilestoneCode,
		Name:              input.Name,
		Status:            models.MilestoneStatusPending,
		PlannedDate:       input.PlannedDate,
		ProgressThreshold: input.ProgressThreshold,
		Remark:            input.Remark,
	}

	if err := s.repo.Create(ctx, milestone); err != nil {
		return nil, fmt.Errorf("创建里程碑失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "milestone", milestone.ID,
			fmt.Sprintf("创建里程碑 %s", milestone.MilestoneCode))
	}

	return milestone, nil
}

// CompleteMilestone transitions a pending milestone to completed and,
// when autoInvoice is set, generates draft invoices for every pending
// payment plan attached to it. The whole operation runs in one
// database transaction so a late invoice failure rolls back the status
// change as well.
//
// Re-completing an already completed milestone is a no-op returning the
// milestone unchanged. Plans already invoiced are never re-invoiced.
func (s *MilestoneService) CompleteMilestone(ctx context.Context, projectID, milestoneID uint, actualDate *time.Time, autoInvoice bool, actorID uint) (*models.ProjectMilestone, error) {
	milestone, err := s.repo.FindByIDForProject(ctx, projectID, milestoneID)
	if err != nil {
		return nil, ErrNotFound
	}

	if milestone.IsCompleted() {
		return milestone, nil
	}

	if s.progressChecker != nil {
		ok, missing, err := s.progressChecker.CheckMilestoneCompletionRequirements(ctx, milestone)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &PreconditionError{Missing: missing}
		}
	}

	var created []models.Invoice
	err = s.transactor.InTx(ctx, func(r *repository.Repositories) error {
		mfsm := statemachine.NewMilestoneFSM(milestone)
		if err := mfsm.Complete(ctx); err != nil {
			return err
		}

		today := time.Now()
		switch {
		case actualDate != nil:
			milestone.ActualDate = actualDate
		case milestone.ActualDate != nil:
			// keep the previously recorded date
		default:
			milestone.ActualDate = &today
		}

		if err := r.Milestone.Update(ctx, milestone); err != nil {
			return fmt.Errorf("更新里程碑失败: %w", err)
		}

		if !autoInvoice {
			return nil
		}

		plans, err := r.PaymentPlan.FindPendingByMilestone(ctx, milestone.ID)
		if err != nil {
			return fmt.Errorf("failed to load payment plans: %w", err)
		}

		for i := range plans {
			plan := &plans[i]
			if plan.Contract == nil {
				logger.Warn("payment plan has no contract, skipping invoice",
					"plan_id", plan.ID, "milestone_id", milestone.ID)
				continue
			}

			invoice, err := buildPlanInvoice(ctx, r.Invoice, plan, today)
			if err != nil {
				return err
			}
			if err := r.Invoice.Create(ctx, invoice); err != nil {
				return fmt.Errorf("创建发票失败: %w", err)
			}

			plan.InvoiceID = &invoice.ID
			plan.InvoiceNo = invoice.InvoiceCode
			plan.InvoiceDate = &today
			total := invoice.TotalAmount
			plan.InvoiceAmount = &total
			plan.Status = models.PaymentPlanStatusInvoiced
			if err := r.PaymentPlan.Update(ctx, plan); err != nil {
				return fmt.Errorf("更新收款计划失败: %w", err)
			}

			created = append(created, *invoice)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("milestone completed",
		"milestone_code", milestone.MilestoneCode,
		"project_id", milestone.ProjectID,
		"invoices_created", len(created),
	)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionComplete, "milestone", milestone.ID,
			fmt.Sprintf("完成里程碑 %s, 自动开票 %d 张", milestone.MilestoneCode, len(created)))
	}

	if s.notificationSvc != nil {
		s.notificationSvc.NotifyMilestoneCompleted(ctx, milestone, created)
	}

	return milestone, nil
}

// buildPlanInvoice assembles the draft invoice for one payment plan:
// amount from the plan, fixed 13% VAT, due 30 days after issue, buyer
// fields copied from the contract's customer.
func buildPlanInvoice(ctx context.Context, invoiceRepo repository.InvoiceRepository, plan *models.ProjectPaymentPlan, today time.Time) (*models.Invoice, error) {
	code, err := nextInvoiceCode(ctx, invoiceRepo, today)
	if err != nil {
		return nil, err
	}

	amount := plan.PlannedAmount
	taxRate := models.DefaultTaxRatePct
	taxAmount := amount.Mul(taxRate).Div(decimal.NewFromInt(100)).RoundBank(2)
	totalAmount := amount.Add(taxAmount)

	invoice := &models.Invoice{
		InvoiceCode: code,
		ContractID:  plan.ContractID,
		ProjectID:   plan.ProjectID,
		Amount:      amount,
		TaxRate:     taxRate,
		TaxAmount:   taxAmount,
		TotalAmount: totalAmount,
		Status:      models.InvoiceStatusDraft,
		IssueDate:   today,
		DueDate:     today.AddDate(0, 0, 30),
	}

	if plan.Contract.Customer != nil {
		invoice.BuyerName = plan.Contract.Customer.Name
		invoice.BuyerTaxNo = plan.Contract.Customer.TaxNo
	}

	return invoice, nil
}

// nextInvoiceCode allocates the next day-scoped invoice code. The
// sequence restarts at 001 each day; an unparsable max suffix also
// resets it to 001.
func nextInvoiceCode(ctx context.Context, invoiceRepo repository.InvoiceRepository, today time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", today.Format("060102"))

	maxCode, err := invoiceRepo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read invoice sequence: %w", err)
	}

	next := 1
	if maxCode != "" {
		suffix := strings.TrimPrefix(maxCode, prefix)
		if n, err := strconv.Atoi(suffix); err == nil {
			next = n + 1
		}
	}

	return fmt.Sprintf("%s%03d", prefix, next), nil
}

// CancelMilestone cancels a pending milestone
func (s *MilestoneService) CancelMilestone(ctx context.Context, projectID, milestoneID uint, actorID uint) (*models.ProjectMilestone, error) {
	milestone, err := s.repo.FindByIDForProject(ctx, projectID, milestoneID)
	if err != nil {
		return nil, ErrNotFound
	}

	mfsm := statemachine.NewMilestoneFSM(milestone)
	if err := mfsm.Cancel(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, fmt.Errorf("更新里程碑失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "milestone", milestone.ID,
			fmt.Sprintf("取消里程碑 %s", milestone.MilestoneCode))
	}

	return milestone, nil
}

// UpdateMilestoneInput carries updatable milestone fields
type UpdateMilestoneInput struct {
	Name              *string
	PlannedDate       *time.Time
	ProgressThreshold *decimal.Decimal
	Remark            *string
}

// UpdateMilestone edits a milestone's planning fields
func (s *MilestoneService) UpdateMilestone(ctx context.Context, projectID, milestoneID uint, input UpdateMilestoneInput, actorID uint) (*models.ProjectMilestone, error) {
	milestone, err := s.repo.FindByIDForProject(ctx, projectID, milestoneID)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		milestone.Name = *input.Name
	}
	if input.PlannedDate != nil {
		milestone.PlannedDate = input.PlannedDate
	}
	if input.ProgressThreshold != nil {
		milestone.ProgressThreshold = input.ProgressThreshold
	}
	if input.Remark != nil {
		milestone.Remark = input.Remark
	}

	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, fmt.Errorf("更新里程碑失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "milestone", milestone.ID,
			fmt.Sprintf("更新里程碑 %s", milestone.MilestoneCode))
	}

	return milestone, nil
}

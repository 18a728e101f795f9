package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/jung-kurt/gofpdf"
)

// InvoiceService manages the invoice lifecycle after the milestone
// cascade creates drafts: issue, collect, void, plus the overdue scan
// run by the background job.
type InvoiceService struct {
	repo            repository.InvoiceRepository
	planRepo        repository.PaymentPlanRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	repo repository.InvoiceRepository,
	planRepo repository.PaymentPlanRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *InvoiceService {
	return &InvoiceService{
		repo:            repo,
		planRepo:        planRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

// FindByID returns an invoice by ID
func (s *InvoiceService) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return invoice, nil
}

// List returns a paginated invoice listing
func (s *InvoiceService) List(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	return s.repo.List(ctx, query)
}

// Issue moves a draft invoice to issued and restarts the payment clock:
// issue date becomes today and the due date moves 30 days out.
func (s *InvoiceService) Issue(ctx context.Context, id uint, actorID uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !invoice.MayIssue() {
		return nil, ErrInvalidState
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusIssued
	invoice.IssueDate = now
	invoice.DueDate = now.AddDate(0, 0, 30)

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("更新发票失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "invoice", invoice.ID,
			fmt.Sprintf("开具发票 %s", invoice.InvoiceCode))
	}

	return invoice, nil
}

// MarkPaid records collection of an issued invoice and flips the linked
// payment plan to paid.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint, actorID uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !invoice.MayMarkPaid() {
		return nil, ErrInvalidState
	}

	invoice.Status = models.InvoiceStatusPaid
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("更新发票失败: %w", err)
	}

	s.syncPlanStatus(ctx, invoice, models.PaymentPlanStatusPaid)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "invoice", invoice.ID,
			fmt.Sprintf("发票 %s 已回款", invoice.InvoiceCode))
	}

	return invoice, nil
}

// Void voids a draft or issued invoice and releases the linked payment
// plan back to pending so it can be re-invoiced.
func (s *InvoiceService) Void(ctx context.Context, id uint, actorID uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !invoice.MayVoid() {
		return nil, ErrInvalidState
	}

	invoice.Status = models.InvoiceStatusVoid
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("更新发票失败: %w", err)
	}

	s.releasePlan(ctx, invoice)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "invoice", invoice.ID,
			fmt.Sprintf("作废发票 %s", invoice.InvoiceCode))
	}

	return invoice, nil
}

// syncPlanStatus mirrors an invoice status change onto the payment plan
// that points at it. Plan lookup failures only log.
func (s *InvoiceService) syncPlanStatus(ctx context.Context, invoice *models.Invoice, status string) {
	plans, err := s.planRepo.FindByContract(ctx, invoice.ContractID)
	if err != nil {
		logger.Error("failed to load payment plans", "contract_id", invoice.ContractID, "error", err)
		return
	}
	for i := range plans {
		plan := &plans[i]
		if plan.InvoiceID == nil || *plan.InvoiceID != invoice.ID {
			continue
		}
		plan.Status = status
		if err := s.planRepo.Update(ctx, plan); err != nil {
			logger.Error("failed to sync payment plan", "plan_id", plan.ID, "error", err)
		}
	}
}

// releasePlan detaches a voided invoice from its payment plan and
// resets the plan to pending.
func (s *InvoiceService) releasePlan(ctx context.Context, invoice *models.Invoice) {
	plans, err := s.planRepo.FindByContract(ctx, invoice.ContractID)
	if err != nil {
		logger.Error("failed to load payment plans", "contract_id", invoice.ContractID, "error", err)
		return
	}
	for i := range plans {
		plan := &plans[i]
		if plan.InvoiceID == nil || *plan.InvoiceID != invoice.ID {
			continue
		}
		plan.InvoiceID = nil
		plan.InvoiceNo = ""
		plan.InvoiceDate = nil
		plan.InvoiceAmount = nil
		plan.Status = models.PaymentPlanStatusPending
		if err := s.planRepo.Update(ctx, plan); err != nil {
			logger.Error("failed to release payment plan", "plan_id", plan.ID, "error", err)
		}
	}
}

// ScanOverdue finds issued invoices past their due date and notifies
// admins for each. Returns the number of overdue invoices found.
func (s *InvoiceService) ScanOverdue(ctx context.Context) (int, error) {
	invoices, err := s.repo.FindOverdue(ctx)
	if err != nil {
		return 0, err
	}

	for i := range invoices {
		inv := &invoices[i]
		logger.Warn("invoice overdue",
			"invoice_code", inv.InvoiceCode,
			"due_date", inv.DueDate.Format("2006-01-02"),
			"total_amount", inv.TotalAmount.String(),
		)
		if s.notificationSvc != nil {
			s.notificationSvc.NotifyInvoiceOverdue(ctx, inv)
		}
	}

	return len(invoices), nil
}

// GeneratePDF renders a printable summary of one invoice
func (s *InvoiceService) GeneratePDF(ctx context.Context, id uint) ([]byte, string, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "VAT Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Invoice No:")
	pdf.Cell(40, 10, invoice.InvoiceCode)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Status:")
	pdf.Cell(40, 10, invoice.Status)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Buyer:")
	pdf.Cell(40, 10, invoice.BuyerName)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Buyer Tax No:")
	pdf.Cell(40, 10, invoice.BuyerTaxNo)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Issue Date:")
	pdf.Cell(40, 10, invoice.IssueDate.Format("2006-01-02"))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Due Date:")
	pdf.Cell(40, 10, invoice.DueDate.Format("2006-01-02"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Amounts")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Amount:")
	pdf.Cell(40, 10, invoice.Amount.StringFixed(2))
	pdf.Ln(6)

	pdf.Cell(60, 10, fmt.Sprintf("Tax (%s%%):", invoice.TaxRate.StringFixed(0)))
	pdf.Cell(40, 10, invoice.TaxAmount.StringFixed(2))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Total:")
	pdf.Cell(40, 10, invoice.TotalAmount.StringFixed(2))
	pdf.Ln(6)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("invoice_%s.pdf", invoice.InvoiceCode)
	return buf.Bytes(), filename, nil
}

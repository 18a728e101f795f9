package repository

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"gorm.io/gorm"
)

// PaymentPlanRepository defines the interface for payment plan data access
type PaymentPlanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ProjectPaymentPlan, error)
	FindByMilestone(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error)
	FindPendingByMilestone(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.ProjectPaymentPlan, error)
	FindByContract(ctx context.Context, contractID uint) ([]models.ProjectPaymentPlan, error)
	Create(ctx context.Context, plan *models.ProjectPaymentPlan) error
	Update(ctx context.Context, plan *models.ProjectPaymentPlan) error
	Delete(ctx context.Context, id uint) error
}

type paymentPlanRepository struct {
	db *gorm.DB
}

// NewPaymentPlanRepository creates a new payment plan repository
func NewPaymentPlanRepository(db *gorm.DB) PaymentPlanRepository {
	return &paymentPlanRepository{db: db}
}

func (r *paymentPlanRepository) FindByID(ctx context.Context, id uint) (*models.ProjectPaymentPlan, error) {
	var plan models.ProjectPaymentPlan
	err := r.db.WithContext(ctx).Preload("Contract.Customer").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *paymentPlanRepository) FindByMilestone(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error) {
	var plans []models.ProjectPaymentPlan
	err := r.db.WithContext(ctx).
		Where("milestone_id = ?", milestoneID).
		Preload("Contract.Customer").
		Order("planned_date ASC").
		Find(&plans).Error
	return plans, err
}

// FindPendingByMilestone returns the plans the invoice cascade operates
// on: still pending and never invoiced before.
func (r *paymentPlanRepository) FindPendingByMilestone(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error) {
	var plans []models.ProjectPaymentPlan
	err := r.db.WithContext(ctx).
		Where("milestone_id = ? AND status = ? AND invoice_id IS NULL",
			milestoneID, models.PaymentPlanStatusPending).
		Preload("Contract.Customer").
		Order("id ASC").
		Find(&plans).Error
	return plans, err
}

func (r *paymentPlanRepository) FindByProject(ctx context.Context, projectID uint) ([]models.ProjectPaymentPlan, error) {
	var plans []models.ProjectPaymentPlan
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("planned_date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *paymentPlanRepository) FindByContract(ctx context.Context, contractID uint) ([]models.ProjectPaymentPlan, error) {
	var plans []models.ProjectPaymentPlan
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("planned_date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *paymentPlanRepository) Create(ctx context.Context, plan *models.ProjectPaymentPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *paymentPlanRepository) Update(ctx context.Context, plan *models.ProjectPaymentPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *paymentPlanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ProjectPaymentPlan{}, id).Error
}

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindByContract(ctx context.Context, contractID uint) ([]models.Invoice, error)
	FindOverdue(ctx context.Context) ([]models.Invoice, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).Preload("Contract.Customer").First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByContract(ctx context.Context, contractID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("issue_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) FindOverdue(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < CURRENT_DATE", models.InvoiceStatusIssued).
		Preload("Contract.Customer").
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

// MaxCodeForPrefix returns the invoice code with the largest numeric
// suffix for the given prefix, or empty string when the prefix is
// unused. Ordering by length before value keeps the sequence correct
// once suffixes grow past three digits.
func (r *invoiceRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(MAX(invoice_code), '')").
		Where("invoice_code LIKE ?", prefix+"%").
		Where("LENGTH(invoice_code) = (SELECT MAX(LENGTH(invoice_code)) FROM invoices WHERE invoice_code LIKE ?)", prefix+"%").
		Scan(&code).Error
	return code, err
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *invoiceRepository) List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Invoice{})

	if val := query.Filters["status"]; val != "" {
		db = db.Where("invoices.status = ?", val)
	}
	if val := query.Filters["contract_id"]; val != "" {
		db = db.Where("invoices.contract_id = ?", val)
	}
	if val := query.Filters["project_id"]; val != "" {
		db = db.Where("invoices.project_id = ?", val)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("invoices.invoice_code ILIKE ? OR invoices.buyer_name ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "issue_date DESC")
	db = applyPagination(db, query)

	err := db.Preload("Contract.Customer").Find(&invoices).Error
	return invoices, total, err
}

package services

import (
	"context"
	"sort"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardOverview is the management rollup across delivery and sales
type DashboardOverview struct {
	TotalProjects      int64            `json:"total_projects"`
	ProjectsByStage    map[string]int64 `json:"projects_by_stage"`
	ProjectsByHealth   map[string]int64 `json:"projects_by_health"`
	BlockedProjects    int64            `json:"blocked_projects"`
	TotalMachines      int64            `json:"total_machines"`
	CompletedMachines  int64            `json:"completed_machines"`
	AvgProjectProgress decimal.Decimal  `json:"avg_project_progress"`

	OpenLeads         int64 `json:"open_leads"`
	OpenOpportunities int64 `json:"open_opportunities"`
	PendingContracts  int64 `json:"pending_contracts"`
	ActiveContracts   int64 `json:"active_contracts"`

	TotalContracted decimal.Decimal `json:"total_contracted"`
	TotalInvoiced   decimal.Decimal `json:"total_invoiced"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	OverdueInvoices int64           `json:"overdue_invoices"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ReceivableRow is one contract's receivable position
type ReceivableRow struct {
	ContractCode   string          `json:"contract_code"`
	CustomerName   string          `json:"customer_name"`
	ContractAmount decimal.Decimal `json:"contract_amount"`
	InvoicedAmount decimal.Decimal `json:"invoiced_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	OpenAmount     decimal.Decimal `json:"open_amount"`
}

// ReportService computes management reports with direct SQL
// aggregates. Reports are read-only and tolerate a busy write path.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// GetDashboard builds the overview across projects, pipeline and money
func (s *ReportService) GetDashboard(ctx context.Context) (*DashboardOverview, error) {
	overview := &DashboardOverview{
		ProjectsByStage:  map[string]int64{},
		ProjectsByHealth: map[string]int64{},
		GeneratedAt:      time.Now(),
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Project{}).Count(&overview.TotalProjects).Error; err != nil {
		return nil, err
	}

	type groupCount struct {
		Key   string
		Count int64
	}

	var stageCounts []groupCount
	if err := db.Model(&models.Project{}).
		Select("stage AS key, COUNT(*) AS count").
		Group("stage").
		Scan(&stageCounts).Error; err != nil {
		return nil, err
	}
	for _, gc := range stageCounts {
		overview.ProjectsByStage[gc.Key] = gc.Count
	}

	var healthCounts []groupCount
	if err := db.Model(&models.Project{}).
		Select("health AS key, COUNT(*) AS count").
		Group("health").
		Scan(&healthCounts).Error; err != nil {
		return nil, err
	}
	for _, gc := range healthCounts {
		overview.ProjectsByHealth[gc.Key] = gc.Count
	}
	overview.BlockedProjects = overview.ProjectsByHealth[models.HealthBlocked]

	if err := db.Model(&models.Machine{}).Count(&overview.TotalMachines).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Machine{}).
		Where("stage = ?", models.StageS9).
		Count(&overview.CompletedMachines).Error; err != nil {
		return nil, err
	}

	var avgProgress decimal.NullDecimal
	if err := db.Model(&models.Project{}).
		Select("AVG(progress_pct)").
		Scan(&avgProgress).Error; err != nil {
		return nil, err
	}
	if avgProgress.Valid {
		overview.AvgProjectProgress = avgProgress.Decimal.RoundBank(2)
	}

	if err := db.Model(&models.Lead{}).
		Where("status IN ?", []string{models.LeadStatusNew, models.LeadStatusQualified}).
		Count(&overview.OpenLeads).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Opportunity{}).
		Where("stage IN ?", []string{models.OpportunityStageDiscovery, models.OpportunityStageProposal}).
		Count(&overview.OpenOpportunities).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Contract{}).
		Where("status = ?", models.ContractStatusSubmitted).
		Count(&overview.PendingContracts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Contract{}).
		Where("status = ?", models.ContractStatusActive).
		Count(&overview.ActiveContracts).Error; err != nil {
		return nil, err
	}

	sums := []struct {
		target *decimal.Decimal
		model  interface{}
		query  string
		args   []interface{}
		column string
	}{
		{&overview.TotalContracted, &models.Contract{}, "status IN ?", []interface{}{[]string{models.ContractStatusActive, models.ContractStatusClosed}}, "amount"},
		{&overview.TotalInvoiced, &models.Invoice{}, "status <> ?", []interface{}{models.InvoiceStatusVoid}, "total_amount"},
		{&overview.TotalCollected, &models.Invoice{}, "status = ?", []interface{}{models.InvoiceStatusPaid}, "total_amount"},
	}
	for _, sum := range sums {
		var value decimal.NullDecimal
		if err := db.Model(sum.model).
			Select("SUM(" + sum.column + ")").
			Where(sum.query, sum.args...).
			Scan(&value).Error; err != nil {
			return nil, err
		}
		if value.Valid {
			*sum.target = value.Decimal
		}
	}

	if err := db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < CURRENT_DATE", models.InvoiceStatusIssued).
		Count(&overview.OverdueInvoices).Error; err != nil {
		return nil, err
	}
	var overdueAmount decimal.NullDecimal
	if err := db.Model(&models.Invoice{}).
		Select("SUM(total_amount)").
		Where("status = ? AND due_date < CURRENT_DATE", models.InvoiceStatusIssued).
		Scan(&overdueAmount).Error; err != nil {
		return nil, err
	}
	if overdueAmount.Valid {
		overview.OverdueAmount = overdueAmount.Decimal
	}

	return overview, nil
}

// GetReceivables lists the receivable position of every active or
// closed contract, largest open balance first.
func (s *ReportService) GetReceivables(ctx context.Context) ([]ReceivableRow, error) {
	var contracts []models.Contract
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.ContractStatusActive, models.ContractStatusClosed}).
		Preload("Customer").
		Preload("Invoices").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ReceivableRow, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]

		paid := decimal.Zero
		for _, inv := range c.Invoices {
			if inv.Status == models.InvoiceStatusPaid {
				paid = paid.Add(inv.TotalAmount)
			}
		}
		invoiced := c.InvoicedAmount()

		row := ReceivableRow{
			ContractCode:   c.ContractCode,
			ContractAmount: c.Amount,
			InvoicedAmount: invoiced,
			PaidAmount:     paid,
			OpenAmount:     invoiced.Sub(paid),
		}
		if c.Customer != nil {
			row.CustomerName = c.Customer.Name
		}
		rows = append(rows, row)
	}

	// Largest outstanding balance first
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].OpenAmount.GreaterThan(rows[j].OpenAmount)
	})

	return rows, nil
}

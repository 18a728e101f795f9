package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Customer     CustomerRepository
	Lead         LeadRepository
	Opportunity  OpportunityRepository
	Quote        QuoteRepository
	Contract     ContractRepository
	Project      ProjectRepository
	Machine      MachineRepository
	Milestone    MilestoneRepository
	PaymentPlan  PaymentPlanRepository
	Invoice      InvoiceRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances against the given
// database handle (a live connection or a transaction).
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Customer:     NewCustomerRepository(db),
		Lead:         NewLeadRepository(db),
		Opportunity:  NewOpportunityRepository(db),
		Quote:        NewQuoteRepository(db),
		Contract:     NewContractRepository(db),
		Project:      NewProjectRepository(db),
		Machine:      NewMachineRepository(db),
		Milestone:    NewMilestoneRepository(db),
		PaymentPlan:  NewPaymentPlanRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// Transactor runs a function against a transactional repository set.
// Multi-entity workflows (milestone completion with its invoice cascade,
// quote-to-contract conversion) commit or roll back as one unit.
type Transactor interface {
	InTx(ctx context.Context, fn func(r *Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a gorm-backed Transactor
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(r *Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// ListQuery carries pagination, sorting and filtering for list endpoints
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the row offset for the current page
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// applySort appends an ORDER BY clause from the query, falling back to
// the given default ordering.
func applySort(db *gorm.DB, query *ListQuery, defaultOrder string) *gorm.DB {
	if query.SortBy == "" {
		return db.Order(defaultOrder)
	}
	order := query.SortBy
	if query.SortDir == "desc" {
		order += " DESC"
	}
	return db.Order(order)
}

// applyPagination appends OFFSET/LIMIT from the query
func applyPagination(db *gorm.DB, query *ListQuery) *gorm.DB {
	if query.PerPage > 0 {
		return db.Offset(query.Offset()).Limit(query.PerPage)
	}
	return db
}

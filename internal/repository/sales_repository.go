package repository

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"gorm.io/gorm"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByIDWith360(ctx context.Context, id uint) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIDWith360 loads the customer with everything the 360 view needs
// in one call: projects with their machines, contracts with plans and
// invoices.
func (r *customerRepository) FindByIDWith360(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Preload("Projects.Machines").
		Preload("Contracts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Contracts.PaymentPlans").
		Preload("Contracts.Invoices").
		First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Customer{}, id).Error
}

func (r *customerRepository) List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Customer{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR customer_code ILIKE ? OR contact_name ILIKE ?", search, search, search)
	}
	if val := query.Filters["level"]; val != "" {
		db = db.Where("level = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "created_at DESC")
	db = applyPagination(db, query)

	err := db.Find(&customers).Error
	return customers, total, err
}

func (r *customerRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select("COALESCE(MAX(customer_code), '')").
		Where("customer_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	List(ctx context.Context, query *ListQuery) ([]models.Lead, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) FindByID(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).First(&lead, id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *leadRepository) List(ctx context.Context, query *ListQuery) ([]models.Lead, int64, error) {
	var leads []models.Lead
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Lead{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("company_name ILIKE ? OR contact_name ILIKE ? OR lead_code ILIKE ?", search, search, search)
	}
	if val := query.Filters["status"]; val != "" {
		db = db.Where("status = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "created_at DESC")
	db = applyPagination(db, query)

	err := db.Preload("Owner").Find(&leads).Error
	return leads, total, err
}

func (r *leadRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Select("COALESCE(MAX(lead_code), '')").
		Where("lead_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Opportunity, error)
	Create(ctx context.Context, opp *models.Opportunity) error
	Update(ctx context.Context, opp *models.Opportunity) error
	List(ctx context.Context, query *ListQuery) ([]models.Opportunity, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository creates a new opportunity repository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) FindByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).Preload("Customer").First(&opp, id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *opportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

func (r *opportunityRepository) Update(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Save(opp).Error
}

func (r *opportunityRepository) List(ctx context.Context, query *ListQuery) ([]models.Opportunity, int64, error) {
	var opps []models.Opportunity
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Opportunity{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR opportunity_code ILIKE ?", search, search)
	}
	if val := query.Filters["stage"]; val != "" {
		db = db.Where("stage = ?", val)
	}
	if val := query.Filters["customer_id"]; val != "" {
		db = db.Where("customer_id = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "created_at DESC")
	db = applyPagination(db, query)

	err := db.Preload("Customer").Find(&opps).Error
	return opps, total, err
}

func (r *opportunityRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Select("COALESCE(MAX(opportunity_code), '')").
		Where("opportunity_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

// QuoteRepository defines the interface for quote data access
type QuoteRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Quote, error)
	FindByOpportunity(ctx context.Context, opportunityID uint) ([]models.Quote, error)
	Create(ctx context.Context, quote *models.Quote) error
	Update(ctx context.Context, quote *models.Quote) error
	List(ctx context.Context, query *ListQuery) ([]models.Quote, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) FindByID(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).Preload("Customer").First(&quote, id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) FindByOpportunity(ctx context.Context, opportunityID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("created_at DESC").
		Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *quoteRepository) List(ctx context.Context, query *ListQuery) ([]models.Quote, int64, error) {
	var quotes []models.Quote
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Quote{})

	if val := query.Filters["status"]; val != "" {
		db = db.Where("status = ?", val)
	}
	if val := query.Filters["customer_id"]; val != "" {
		db = db.Where("customer_id = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "created_at DESC")
	db = applyPagination(db, query)

	err := db.Preload("Customer").Find(&quotes).Error
	return quotes, total, err
}

func (r *quoteRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Select("COALESCE(MAX(quote_code), '')").
		Where("quote_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

// ContractRepository defines the interface for contract data access
type ContractRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contract, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Contract, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).Preload("Customer").First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Quote").
		Preload("PaymentPlans", func(db *gorm.DB) *gorm.DB {
			return db.Order("planned_date ASC")
		}).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("issue_date ASC")
		}).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Invoices").
		Order("created_at DESC").
		Find(&contracts).Error
	return contracts, err
}

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *contractRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Contract{}, id).Error
}

func (r *contractRepository) List(ctx context.Context, query *ListQuery) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contract{})

	if val := query.Filters["status"]; val != "" {
		db = db.Where("contracts.status = ?", val)
	}
	if val := query.Filters["customer_id"]; val != "" {
		db = db.Where("contracts.customer_id = ?", val)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN customers ON customers.id = contracts.customer_id").
			Where("contracts.contract_code ILIKE ? OR contracts.name ILIKE ? OR customers.name ILIKE ?",
				search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "contracts.created_at DESC")
	db = applyPagination(db, query)

	err := db.Preload("Customer").Find(&contracts).Error
	return contracts, total, err
}

func (r *contractRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Select("COALESCE(MAX(contract_code), '')").
		Where("contract_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

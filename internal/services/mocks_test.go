package services

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
)

// Shared repository mocks for service tests. Interface embedding keeps
// each mock small; only the methods a test exercises get a function
// field.

type mockProjectRepository struct {
	repository.ProjectRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Project, error)
	mockUpdate           func(ctx context.Context, project *models.Project) error
	mockCreate           func(ctx context.Context, project *models.Project) error
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockList             func(ctx context.Context, query *repository.ListQuery) ([]models.Project, int64, error)
}

func (m *mockProjectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, project)
	}
	return nil
}
func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, project)
	}
	return nil
}
func (m *mockProjectRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockProjectRepository) List(ctx context.Context, query *repository.ListQuery) ([]models.Project, int64, error) {
	if m.mockList != nil {
		return m.mockList(ctx, query)
	}
	return nil, 0, nil
}

type mockMachineRepository struct {
	repository.MachineRepository
	mockFindByID      func(ctx context.Context, id uint) (*models.Machine, error)
	mockFindByProject func(ctx context.Context, projectID uint) ([]models.Machine, error)
	mockMaxMachineNo  func(ctx context.Context, projectID uint) (int, error)
	mockCodeExists    func(ctx context.Context, projectID uint, code string) (bool, error)
	mockCreate        func(ctx context.Context, machine *models.Machine) error
	mockUpdate        func(ctx context.Context, machine *models.Machine) error
}

func (m *mockMachineRepository) FindByID(ctx context.Context, id uint) (*models.Machine, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockMachineRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Machine, error) {
	if m.mockFindByProject != nil {
		return m.mockFindByProject(ctx, projectID)
	}
	return nil, nil
}
func (m *mockMachineRepository) MaxMachineNo(ctx context.Context, projectID uint) (int, error) {
	if m.mockMaxMachineNo != nil {
		return m.mockMaxMachineNo(ctx, projectID)
	}
	return 0, nil
}
func (m *mockMachineRepository) CodeExists(ctx context.Context, projectID uint, code string) (bool, error) {
	if m.mockCodeExists != nil {
		return m.mockCodeExists(ctx, projectID, code)
	}
	return false, nil
}
func (m *mockMachineRepository) Create(ctx context.Context, machine *models.Machine) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, machine)
	}
	return nil
}
func (m *mockMachineRepository) Update(ctx context.Context, machine *models.Machine) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, machine)
	}
	return nil
}

type mockMilestoneRepository struct {
	repository.MilestoneRepository
	mockFindByIDForProject func(ctx context.Context, projectID, id uint) (*models.ProjectMilestone, error)
	mockCreate             func(ctx context.Context, milestone *models.ProjectMilestone) error
	mockUpdate             func(ctx context.Context, milestone *models.ProjectMilestone) error
}

func (m *mockMilestoneRepository) FindByIDForProject(ctx context.Context, projectID, id uint) (*models.ProjectMilestone, error) {
	if m.mockFindByIDForProject != nil {
		return m.mockFindByIDForProject(ctx, projectID, id)
	}
	return nil, nil
}
func (m *mockMilestoneRepository) Create(ctx context.Context, milestone *models.ProjectMilestone) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, milestone)
	}
	return nil
}
func (m *mockMilestoneRepository) Update(ctx context.Context, milestone *models.ProjectMilestone) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, milestone)
	}
	return nil
}

type mockPaymentPlanRepository struct {
	repository.PaymentPlanRepository
	mockFindPendingByMilestone func(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error)
	mockFindByContract         func(ctx context.Context, contractID uint) ([]models.ProjectPaymentPlan, error)
	mockCreate                 func(ctx context.Context, plan *models.ProjectPaymentPlan) error
	mockUpdate                 func(ctx context.Context, plan *models.ProjectPaymentPlan) error
}

func (m *mockPaymentPlanRepository) FindPendingByMilestone(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error) {
	if m.mockFindPendingByMilestone != nil {
		return m.mockFindPendingByMilestone(ctx, milestoneID)
	}
	return nil, nil
}
func (m *mockPaymentPlanRepository) FindByContract(ctx context.Context, contractID uint) ([]models.ProjectPaymentPlan, error) {
	if m.mockFindByContract != nil {
		return m.mockFindByContract(ctx, contractID)
	}
	return nil, nil
}
func (m *mockPaymentPlanRepository) Create(ctx context.Context, plan *models.ProjectPaymentPlan) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, plan)
	}
	return nil
}
func (m *mockPaymentPlanRepository) Update(ctx context.Context, plan *models.ProjectPaymentPlan) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, plan)
	}
	return nil
}

type mockInvoiceRepository struct {
	repository.InvoiceRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Invoice, error)
	mockFindOverdue      func(ctx context.Context) ([]models.Invoice, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, invoice *models.Invoice) error
	mockUpdate           func(ctx context.Context, invoice *models.Invoice) error
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockInvoiceRepository) FindOverdue(ctx context.Context) ([]models.Invoice, error) {
	if m.mockFindOverdue != nil {
		return m.mockFindOverdue(ctx)
	}
	return nil, nil
}
func (m *mockInvoiceRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, invoice)
	}
	return nil
}
func (m *mockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, invoice)
	}
	return nil
}

type mockContractRepository struct {
	repository.ContractRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Contract, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, contract *models.Contract) error
	mockUpdate           func(ctx context.Context, contract *models.Contract) error
}

func (m *mockContractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockContractRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, contract)
	}
	return nil
}
func (m *mockContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, contract)
	}
	return nil
}

type mockCustomerRepository struct {
	repository.CustomerRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Customer, error)
	mockFindByIDWith360  func(ctx context.Context, id uint) (*models.Customer, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, customer *models.Customer) error
}

func (m *mockCustomerRepository) FindByIDWith360(ctx context.Context, id uint) (*models.Customer, error) {
	if m.mockFindByIDWith360 != nil {
		return m.mockFindByIDWith360(ctx, id)
	}
	return nil, nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockCustomerRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, customer)
	}
	return nil
}

type mockLeadRepository struct {
	repository.LeadRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Lead, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, lead *models.Lead) error
	mockUpdate           func(ctx context.Context, lead *models.Lead) error
}

func (m *mockLeadRepository) FindByID(ctx context.Context, id uint) (*models.Lead, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockLeadRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, lead)
	}
	return nil
}
func (m *mockLeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, lead)
	}
	return nil
}

type mockOpportunityRepository struct {
	repository.OpportunityRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Opportunity, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, opp *models.Opportunity) error
	mockUpdate           func(ctx context.Context, opp *models.Opportunity) error
}

func (m *mockOpportunityRepository) FindByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockOpportunityRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockOpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, opp)
	}
	return nil
}
func (m *mockOpportunityRepository) Update(ctx context.Context, opp *models.Opportunity) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, opp)
	}
	return nil
}

type mockQuoteRepository struct {
	repository.QuoteRepository
	mockFindByID         func(ctx context.Context, id uint) (*models.Quote, error)
	mockMaxCodeForPrefix func(ctx context.Context, prefix string) (string, error)
	mockCreate           func(ctx context.Context, quote *models.Quote) error
	mockUpdate           func(ctx context.Context, quote *models.Quote) error
}

func (m *mockQuoteRepository) FindByID(ctx context.Context, id uint) (*models.Quote, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, nil
}
func (m *mockQuoteRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.mockMaxCodeForPrefix != nil {
		return m.mockMaxCodeForPrefix(ctx, prefix)
	}
	return "", nil
}
func (m *mockQuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, quote)
	}
	return nil
}
func (m *mockQuoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, quote)
	}
	return nil
}

// fakeTransactor runs the callback against a fixed repository set with
// no real transaction.
type fakeTransactor struct {
	repos *repository.Repositories
}

func (t *fakeTransactor) InTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return fn(t.repos)
}

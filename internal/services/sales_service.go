package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// SalesService runs the pipeline from lead to accepted quote: leads
// convert into customers and opportunities, opportunities carry quotes,
// and an accepted quote becomes a draft contract with its payment
// plans.
type SalesService struct {
	customerRepo    repository.CustomerRepository
	leadRepo        repository.LeadRepository
	opportunityRepo repository.OpportunityRepository
	quoteRepo       repository.QuoteRepository
	contractRepo    repository.ContractRepository
	transactor      repository.Transactor
	auditSvc        *AuditService
}

// NewSalesService creates a new sales service
func NewSalesService(
	customerRepo repository.CustomerRepository,
	leadRepo repository.LeadRepository,
	opportunityRepo repository.OpportunityRepository,
	quoteRepo repository.QuoteRepository,
	contractRepo repository.ContractRepository,
	transactor repository.Transactor,
	auditSvc *AuditService,
) *SalesService {
	return &SalesService{
		customerRepo:    customerRepo,
		leadRepo:        leadRepo,
		opportunityRepo: opportunityRepo,
		quoteRepo:       quoteRepo,
		contractRepo:    contractRepo,
		transactor:      transactor,
		auditSvc:        auditSvc,
	}
}

// nextCode allocates the next sequence for a code prefix using the
// read-max-then-increment pattern shared by all entity codes.
func nextCode(maxCode, prefix, format string) string {
	next := 1
	if maxCode != "" {
		suffix := strings.TrimPrefix(maxCode, prefix)
		if n, err := strconv.Atoi(suffix); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf(format, prefix, next)
}

// --- Customers ---

// CreateCustomerInput carries caller-provided customer fields
type CreateCustomerInput struct {
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
	TaxNo       string
	Level       string
	Industry    string
}

// CreateCustomer creates a customer with a generated CUS code
func (s *SalesService) CreateCustomer(ctx context.Context, input CreateCustomerInput, actorID uint) (*models.Customer, error) {
	prefix := fmt.Sprintf("CUS-%s", time.Now().Format("0601"))
	maxCode, err := s.customerRepo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer sequence: %w", err)
	}

	if input.Level == "" {
		input.Level = models.CustomerLevelC
	}

	customer := &models.Customer{
		CustomerCode: nextCode(maxCode, prefix, "%s%04d"),
		Name:         input.Name,
		ContactName:  input.ContactName,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
		TaxNo:        input.TaxNo,
		Level:        input.Level,
		Industry:     input.Industry,
		CreatedBy:    &actorID,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("创建客户失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "customer", customer.ID,
			fmt.Sprintf("创建客户 %s", customer.CustomerCode))
	}

	return customer, nil
}

// UpdateCustomer edits customer master data
func (s *SalesService) UpdateCustomer(ctx context.Context, id uint, input CreateCustomerInput, actorID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if input.Name != "" {
		customer.Name = input.Name
	}
	if input.ContactName != "" {
		customer.ContactName = input.ContactName
	}
	if input.Phone != "" {
		customer.Phone = input.Phone
	}
	if input.Email != "" {
		customer.Email = input.Email
	}
	if input.Address != "" {
		customer.Address = input.Address
	}
	if input.TaxNo != "" {
		customer.TaxNo = input.TaxNo
	}
	if input.Level != "" {
		customer.Level = input.Level
	}
	if input.Industry != "" {
		customer.Industry = input.Industry
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("更新客户失败: %w", err)
	}

	return customer, nil
}

// FindCustomerByID returns a customer by ID
func (s *SalesService) FindCustomerByID(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return customer, nil
}

// ListCustomers returns a paginated customer listing
func (s *SalesService) ListCustomers(ctx context.Context, query *repository.ListQuery) ([]models.Customer, int64, error) {
	return s.customerRepo.List(ctx, query)
}

// GetCustomer360 builds the full relationship rollup for one customer:
// projects, contracts, invoiced totals and open receivables.
func (s *SalesService) GetCustomer360(ctx context.Context, id uint) (*models.Customer360, error) {
	customer, err := s.customerRepo.FindByIDWith360(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	view := &models.Customer360{
		Customer:        customer.ToResponse(),
		ProjectCount:    len(customer.Projects),
		ContractCount:   len(customer.Contracts),
		TotalContracted: decimal.Zero,
		TotalInvoiced:   decimal.Zero,
	}

	for i := range customer.Projects {
		p := &customer.Projects[i]
		view.Projects = append(view.Projects, p.ToResponse())
	}

	for i := range customer.Contracts {
		c := &customer.Contracts[i]
		view.Contracts = append(view.Contracts, c.ToResponse())

		if c.Status != models.ContractStatusCancelled && c.Status != models.ContractStatusRejected {
			view.TotalContracted = view.TotalContracted.Add(c.Amount)
		}
		view.TotalInvoiced = view.TotalInvoiced.Add(c.InvoicedAmount())

		for j := range c.Invoices {
			inv := &c.Invoices[j]
			if inv.Status == models.InvoiceStatusIssued {
				view.OpenInvoiceCount++
				if inv.IsOverdue() {
					view.OverdueInvoices++
				}
			}
		}

		if c.SignedDate != nil {
			if view.LastContractSigned == nil || c.SignedDate.After(*view.LastContractSigned) {
				view.LastContractSigned = c.SignedDate
			}
		}
	}

	return view, nil
}

// --- Leads ---

// CreateLeadInput carries caller-provided lead fields
type CreateLeadInput struct {
	CompanyName string
	ContactName string
	Phone       string
	Source      string
	Requirement *string
	OwnerID     *uint
}

// CreateLead registers a new inquiry at the top of the pipeline
func (s *SalesService) CreateLead(ctx context.Context, input CreateLeadInput, actorID uint) (*models.Lead, error) {
	prefix := fmt.Sprintf("LD-%s", time.Now().Format("0601"))
	maxCode, err := s.leadRepo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read lead sequence: %w", err)
	}

	lead := &models.Lead{
		LeadCode:    nextCode(maxCode, prefix, "%s%04d"),
		CompanyName: input.CompanyName,
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Source:      input.Source,
		Status:      models.LeadStatusNew,
		Requirement: input.Requirement,
		OwnerID:     input.OwnerID,
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("创建线索失败: %w", err)
	}

	return lead, nil
}

// QualifyLead marks a new lead qualified
func (s *SalesService) QualifyLead(ctx context.Context, id uint) (*models.Lead, error) {
	lead, err := s.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if lead.Status != models.LeadStatusNew {
		return nil, ErrInvalidState
	}
	lead.Status = models.LeadStatusQualified
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// DropLead drops a lead out of the pipeline
func (s *SalesService) DropLead(ctx context.Context, id uint) (*models.Lead, error) {
	lead, err := s.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if lead.Status == models.LeadStatusConverted {
		return nil, ErrInvalidState
	}
	lead.Status = models.LeadStatusDropped
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// ConvertLead converts a lead into a customer plus an opportunity in
// one transaction. An existing customer ID reuses that customer
// instead of creating a new one.
func (s *SalesService) ConvertLead(ctx context.Context, id uint, existingCustomerID *uint, opportunityName string, expectedAmount decimal.Decimal, actorID uint) (*models.Opportunity, error) {
	lead, err := s.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !lead.MayConvert() {
		return nil, ErrInvalidState
	}

	var opportunity *models.Opportunity
	err = s.transactor.InTx(ctx, func(r *repository.Repositories) error {
		var customerID uint
		if existingCustomerID != nil {
			customer, err := r.Customer.FindByID(ctx, *existingCustomerID)
			if err != nil {
				return ErrNotFound
			}
			customerID = customer.ID
		} else {
			prefix := fmt.Sprintf("CUS-%s", time.Now().Format("0601"))
			maxCode, err := r.Customer.MaxCodeForPrefix(ctx, prefix)
			if err != nil {
				return err
			}
			customer := &models.Customer{
				CustomerCode: nextCode(maxCode, prefix, "%s%04d"),
				Name:         lead.CompanyName,
				ContactName:  lead.ContactName,
				Phone:        lead.Phone,
				Level:        models.CustomerLevelC,
				CreatedBy:    &actorID,
			}
			if err := r.Customer.Create(ctx, customer); err != nil {
				return fmt.Errorf("创建客户失败: %w", err)
			}
			customerID = customer.ID
		}

		oppPrefix := fmt.Sprintf("OPP-%s", time.Now().Format("0601"))
		maxCode, err := r.Opportunity.MaxCodeForPrefix(ctx, oppPrefix)
		if err != nil {
			return err
		}

		name := opportunityName
		if name == "" {
			name = lead.CompanyName
		}

		opportunity = &models.Opportunity{
			OpportunityCode: nextCode(maxCode, oppPrefix, "%s%04d"),
			CustomerID:      customerID,
			LeadID:          &lead.ID,
			Name:            name,
			Stage:           models.OpportunityStageDiscovery,
			ExpectedAmount:  expectedAmount,
			OwnerID:         lead.OwnerID,
		}
		if err := r.Opportunity.Create(ctx, opportunity); err != nil {
			return fmt.Errorf("创建商机失败: %w", err)
		}

		now := time.Now()
		lead.Status = models.LeadStatusConverted
		lead.CustomerID = &customerID
		lead.ConvertedAt = &now
		if err := r.Lead.Update(ctx, lead); err != nil {
			return fmt.Errorf("更新线索失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("lead converted",
		"lead_code", lead.LeadCode,
		"opportunity_code", opportunity.OpportunityCode,
	)

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "lead", lead.ID,
			fmt.Sprintf("线索 %s 转化为商机 %s", lead.LeadCode, opportunity.OpportunityCode))
	}

	return opportunity, nil
}

// ListLeads returns a paginated lead listing
func (s *SalesService) ListLeads(ctx context.Context, query *repository.ListQuery) ([]models.Lead, int64, error) {
	return s.leadRepo.List(ctx, query)
}

// --- Opportunities ---

// AdvanceOpportunity moves an open opportunity to a later pipeline stage
func (s *SalesService) AdvanceOpportunity(ctx context.Context, id uint, stage string) (*models.Opportunity, error) {
	opp, err := s.opportunityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !opp.IsOpen() {
		return nil, ErrInvalidState
	}
	switch stage {
	case models.OpportunityStageProposal, models.OpportunityStageWon, models.OpportunityStageLost:
		opp.Stage = stage
	default:
		return nil, newValidationError("无效的商机阶段: %s", stage)
	}
	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

// FindOpportunityByID returns an opportunity by ID
func (s *SalesService) FindOpportunityByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	opp, err := s.opportunityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return opp, nil
}

// ListOpportunities returns a paginated opportunity listing
func (s *SalesService) ListOpportunities(ctx context.Context, query *repository.ListQuery) ([]models.Opportunity, int64, error) {
	return s.opportunityRepo.List(ctx, query)
}

// --- Quotes ---

// CreateQuoteInput carries caller-provided quote fields
type CreateQuoteInput struct {
	OpportunityID uint
	TotalAmount   decimal.Decimal
	ValidUntil    *time.Time
	Note          *string
}

// CreateQuote creates a draft quote against an open opportunity
func (s *SalesService) CreateQuote(ctx context.Context, input CreateQuoteInput, actorID uint) (*models.Quote, error) {
	opp, err := s.opportunityRepo.FindByID(ctx, input.OpportunityID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !opp.IsOpen() {
		return nil, ErrInvalidState
	}

	prefix := fmt.Sprintf("QT-%s", time.Now().Format("0601"))
	maxCode, err := s.quoteRepo.MaxCodeForPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote sequence: %w", err)
	}

	quote := &models.Quote{
		QuoteCode:     nextCode(maxCode, prefix, "%s%04d"),
		OpportunityID: opp.ID,
		CustomerID:    opp.CustomerID,
		TotalAmount:   input.TotalAmount,
		Status:        models.QuoteStatusDraft,
		ValidUntil:    input.ValidUntil,
		Note:          input.Note,
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("创建报价失败: %w", err)
	}

	return quote, nil
}

// SendQuote marks a draft quote sent to the customer
func (s *SalesService) SendQuote(ctx context.Context, id uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, ErrInvalidState
	}
	quote.Status = models.QuoteStatusSent
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// PaymentPlanSpec describes one contractual payment split used when an
// accepted quote converts into a contract.
type PaymentPlanSpec struct {
	Name          string
	PlannedAmount decimal.Decimal
	PlannedDate   *time.Time
}

// AcceptQuote accepts a quote and converts it into a draft contract
// with its payment plans, all in one transaction. The opportunity is
// marked won and sibling quotes stay untouched.
func (s *SalesService) AcceptQuote(ctx context.Context, id uint, contractName string, planSpecs []PaymentPlanSpec, actorID uint) (*models.Contract, error) {
	quote, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !quote.MayAccept() {
		return nil, ErrInvalidState
	}

	var contract *models.Contract
	err = s.transactor.InTx(ctx, func(r *repository.Repositories) error {
		quote.Status = models.QuoteStatusAccepted
		if err := r.Quote.Update(ctx, quote); err != nil {
			return fmt.Errorf("更新报价失败: %w", err)
		}

		opp, err := r.Opportunity.FindByID(ctx, quote.OpportunityID)
		if err != nil {
			return ErrNotFound
		}
		opp.Stage = models.OpportunityStageWon
		if err := r.Opportunity.Update(ctx, opp); err != nil {
			return fmt.Errorf("更新商机失败: %w", err)
		}

		prefix := fmt.Sprintf("CT-%s", time.Now().Format("0601"))
		maxCode, err := r.Contract.MaxCodeForPrefix(ctx, prefix)
		if err != nil {
			return err
		}

		name := contractName
		if name == "" {
			name = opp.Name
		}

		contract = &models.Contract{
			ContractCode: nextCode(maxCode, prefix, "%s%04d"),
			CustomerID:   quote.CustomerID,
			QuoteID:      &quote.ID,
			OwnerID:      opp.OwnerID,
			Name:         name,
			Amount:       quote.TotalAmount,
			Status:       models.ContractStatusDraft,
		}
		if err := r.Contract.Create(ctx, contract); err != nil {
			return fmt.Errorf("创建合同失败: %w", err)
		}

		for _, spec := range planSpecs {
			plan := &models.ProjectPaymentPlan{
				ContractID:    contract.ID,
				Name:          spec.Name,
				Status:        models.PaymentPlanStatusPending,
				PlannedAmount: spec.PlannedAmount,
				PlannedDate:   spec.PlannedDate,
			}
			if err := r.PaymentPlan.Create(ctx, plan); err != nil {
				return fmt.Errorf("创建收款计划失败: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "contract", contract.ID,
			fmt.Sprintf("报价 %s 接受, 生成合同 %s", quote.QuoteCode, contract.ContractCode))
	}

	return contract, nil
}

// RejectQuote marks a quote rejected
func (s *SalesService) RejectQuote(ctx context.Context, id uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if quote.Status != models.QuoteStatusDraft && quote.Status != models.QuoteStatusSent {
		return nil, ErrInvalidState
	}
	quote.Status = models.QuoteStatusRejected
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// ListQuotes returns a paginated quote listing
func (s *SalesService) ListQuotes(ctx context.Context, query *repository.ListQuery) ([]models.Quote, int64, error) {
	return s.quoteRepo.List(ctx, query)
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
)

func TestNextCode(t *testing.T) {
	tests := []struct {
		name     string
		maxCode  string
		prefix   string
		format   string
		expected string
	}{
		{"first in sequence", "", "CUS-2608", "%s%04d", "CUS-26080001"},
		{"increment", "CUS-26080041", "CUS-2608", "%s%04d", "CUS-26080042"},
		{"unparsable suffix restarts", "CUS-2608XYZ", "CUS-2608", "%s%04d", "CUS-26080001"},
		{"two digit format", "PJ26082807", "PJ260828", "%s%02d", "PJ26082808"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextCode(tt.maxCode, tt.prefix, tt.format))
		})
	}
}

func TestCreateCustomerCode(t *testing.T) {
	customerRepo := &mockCustomerRepository{
		mockMaxCodeForPrefix: func(ctx context.Context, prefix string) (string, error) {
			return prefix + "0007", nil
		},
	}
	svc := NewSalesService(customerRepo, nil, nil, nil, nil, nil, nil)

	customer, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Name: "无锡自动化"}, 5)
	assert.NoError(t, err)

	expected := fmt.Sprintf("CUS-%s0008", time.Now().Format("0601"))
	assert.Equal(t, expected, customer.CustomerCode)
	assert.Equal(t, models.CustomerLevelC, customer.Level)
}

func TestQualifyAndDropLead(t *testing.T) {
	lead := &models.Lead{ID: 1, Status: models.LeadStatusNew}
	leadRepo := &mockLeadRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Lead, error) {
			return lead, nil
		},
	}
	svc := NewSalesService(nil, leadRepo, nil, nil, nil, nil, nil)

	qualified, err := svc.QualifyLead(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, qualified.Status)

	// Qualifying twice is rejected
	_, err = svc.QualifyLead(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	dropped, err := svc.DropLead(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.LeadStatusDropped, dropped.Status)
}

func TestConvertLeadCreatesCustomerAndOpportunity(t *testing.T) {
	lead := &models.Lead{
		ID:          1,
		LeadCode:    "LD-26080001",
		CompanyName: "常州智造",
		ContactName: "王工",
		Status:      models.LeadStatusQualified,
	}

	var createdCustomer *models.Customer
	customerRepo := &mockCustomerRepository{
		mockCreate: func(ctx context.Context, customer *models.Customer) error {
			customer.ID = 9
			createdCustomer = customer
			return nil
		},
	}
	leadRepo := &mockLeadRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Lead, error) {
			return lead, nil
		},
	}
	oppRepo := &mockOpportunityRepository{
		mockCreate: func(ctx context.Context, opp *models.Opportunity) error {
			opp.ID = 4
			return nil
		},
	}

	repos := &repository.Repositories{
		Customer:    customerRepo,
		Lead:        leadRepo,
		Opportunity: oppRepo,
	}
	svc := NewSalesService(customerRepo, leadRepo, oppRepo, nil, nil, &fakeTransactor{repos: repos}, nil)

	opp, err := svc.ConvertLead(context.Background(), 1, nil, "产线改造项目", decimal.NewFromInt(500000), 5)
	assert.NoError(t, err)

	assert.NotNil(t, createdCustomer)
	assert.Equal(t, "常州智造", createdCustomer.Name)

	assert.Equal(t, models.OpportunityStageDiscovery, opp.Stage)
	assert.Equal(t, "产线改造项目", opp.Name)
	assert.Equal(t, createdCustomer.ID, opp.CustomerID)

	assert.Equal(t, models.LeadStatusConverted, lead.Status)
	assert.NotNil(t, lead.CustomerID)
	assert.NotNil(t, lead.ConvertedAt)
}

func TestConvertLeadReusesExistingCustomer(t *testing.T) {
	lead := &models.Lead{ID: 1, Status: models.LeadStatusQualified, CompanyName: "常州智造"}

	customerRepo := &mockCustomerRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Customer, error) {
			return &models.Customer{ID: id}, nil
		},
		mockCreate: func(ctx context.Context, customer *models.Customer) error {
			t.Fatal("no new customer should be created")
			return nil
		},
	}
	leadRepo := &mockLeadRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Lead, error) {
			return lead, nil
		},
	}
	oppRepo := &mockOpportunityRepository{}

	repos := &repository.Repositories{Customer: customerRepo, Lead: leadRepo, Opportunity: oppRepo}
	svc := NewSalesService(customerRepo, leadRepo, oppRepo, nil, nil, &fakeTransactor{repos: repos}, nil)

	existing := uint(42)
	opp, err := svc.ConvertLead(context.Background(), 1, &existing, "", decimal.Zero, 5)
	assert.NoError(t, err)
	assert.Equal(t, existing, opp.CustomerID)
	// Empty opportunity name falls back to the company name
	assert.Equal(t, "常州智造", opp.Name)
}

func TestConvertLeadRejectsConvertedLead(t *testing.T) {
	lead := &models.Lead{ID: 1, Status: models.LeadStatusConverted}
	leadRepo := &mockLeadRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Lead, error) {
			return lead, nil
		},
	}
	svc := NewSalesService(nil, leadRepo, nil, nil, nil, nil, nil)

	_, err := svc.ConvertLead(context.Background(), 1, nil, "x", decimal.Zero, 5)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAdvanceOpportunity(t *testing.T) {
	opp := &models.Opportunity{ID: 1, Stage: models.OpportunityStageDiscovery}
	oppRepo := &mockOpportunityRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Opportunity, error) {
			return opp, nil
		},
	}
	svc := NewSalesService(nil, nil, oppRepo, nil, nil, nil, nil)

	advanced, err := svc.AdvanceOpportunity(context.Background(), 1, models.OpportunityStageProposal)
	assert.NoError(t, err)
	assert.Equal(t, models.OpportunityStageProposal, advanced.Stage)

	_, err = svc.AdvanceOpportunity(context.Background(), 1, "WHATEVER")
	assert.Error(t, err)
	assert.Equal(t, "无效的商机阶段: WHATEVER", err.Error())
}

func TestAcceptQuoteCreatesContractAndPlans(t *testing.T) {
	quote := &models.Quote{
		ID:            7,
		QuoteCode:     "QT-26080003",
		OpportunityID: 4,
		CustomerID:    9,
		TotalAmount:   decimal.RequireFromString("800000.00"),
		Status:        models.QuoteStatusSent,
	}
	opp := &models.Opportunity{ID: 4, Name: "产线改造项目", Stage: models.OpportunityStageProposal}

	quoteRepo := &mockQuoteRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Quote, error) {
			return quote, nil
		},
	}
	oppRepo := &mockOpportunityRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Opportunity, error) {
			return opp, nil
		},
	}
	var plansCreated []models.ProjectPaymentPlan
	planRepo := &mockPaymentPlanRepository{
		mockCreate: func(ctx context.Context, plan *models.ProjectPaymentPlan) error {
			plansCreated = append(plansCreated, *plan)
			return nil
		},
	}
	contractRepo := &mockContractRepository{
		mockCreate: func(ctx context.Context, contract *models.Contract) error {
			contract.ID = 12
			return nil
		},
	}

	repos := &repository.Repositories{
		Quote:       quoteRepo,
		Opportunity: oppRepo,
		Contract:    contractRepo,
		PaymentPlan: planRepo,
	}
	svc := NewSalesService(nil, nil, oppRepo, quoteRepo, contractRepo, &fakeTransactor{repos: repos}, nil)

	specs := []PaymentPlanSpec{
		{Name: "预付款", PlannedAmount: decimal.RequireFromString("240000.00")},
		{Name: "发货款", PlannedAmount: decimal.RequireFromString("400000.00")},
		{Name: "验收款", PlannedAmount: decimal.RequireFromString("160000.00")},
	}
	contract, err := svc.AcceptQuote(context.Background(), 7, "产线改造总包合同", specs, 5)
	assert.NoError(t, err)

	assert.Equal(t, models.ContractStatusDraft, contract.Status)
	assert.True(t, contract.Amount.Equal(quote.TotalAmount))
	assert.Equal(t, quote.CustomerID, contract.CustomerID)

	assert.Equal(t, models.QuoteStatusAccepted, quote.Status)
	assert.Equal(t, models.OpportunityStageWon, opp.Stage)

	assert.Len(t, plansCreated, 3)
	for _, plan := range plansCreated {
		assert.Equal(t, contract.ID, plan.ContractID)
		assert.Equal(t, models.PaymentPlanStatusPending, plan.Status)
		// Plans have no project until the contract is activated
		assert.Zero(t, plan.ProjectID)
	}
}

func TestAcceptQuoteAlreadyAccepted(t *testing.T) {
	quote := &models.Quote{ID: 7, Status: models.QuoteStatusAccepted}
	quoteRepo := &mockQuoteRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Quote, error) {
			return quote, nil
		},
	}
	svc := NewSalesService(nil, nil, nil, quoteRepo, nil, nil, nil)

	_, err := svc.AcceptQuote(context.Background(), 7, "x", nil, 5)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateQuoteRequiresOpenOpportunity(t *testing.T) {
	oppRepo := &mockOpportunityRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Opportunity, error) {
			return &models.Opportunity{ID: id, Stage: models.OpportunityStageLost}, nil
		},
	}
	svc := NewSalesService(nil, nil, oppRepo, &mockQuoteRepository{}, nil, nil, nil)

	_, err := svc.CreateQuote(context.Background(), CreateQuoteInput{OpportunityID: 4, TotalAmount: decimal.NewFromInt(1)}, 5)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetCustomer360Rollup(t *testing.T) {
	signed := time.Date(2026, 6, 15, 0, 0, 0, 0, time.Local)
	customerRepo := &mockCustomerRepository{
		mockFindByIDWith360: func(ctx context.Context, id uint) (*models.Customer, error) {
			return &models.Customer{
				ID:           9,
				CustomerCode: "CU26080001",
				Name:         "苏州精密电子",
				Level:        models.CustomerLevelA,
				Projects: []models.Project{
					{ID: 1, ProjectCode: "PJ26061501"},
				},
				Contracts: []models.Contract{
					{
						ID:         5,
						Status:     models.ContractStatusActive,
						Amount:     decimal.RequireFromString("500000"),
						SignedDate: &signed,
						Invoices: []models.Invoice{
							{Status: models.InvoiceStatusIssued,
								TotalAmount: decimal.RequireFromString("113000"),
								DueDate:     time.Now().AddDate(0, 0, -5)},
							{Status: models.InvoiceStatusPaid,
								TotalAmount: decimal.RequireFromString("113000"),
								DueDate:     time.Now().AddDate(0, 0, 30)},
							{Status: models.InvoiceStatusVoid,
								TotalAmount: decimal.RequireFromString("99999")},
						},
					},
					{ID: 6, Status: models.ContractStatusCancelled,
						Amount: decimal.RequireFromString("80000")},
				},
			}, nil
		},
	}
	svc := NewSalesService(customerRepo, nil, nil, nil, nil, nil, nil)

	view, err := svc.GetCustomer360(context.Background(), 9)

	assert.NoError(t, err)
	assert.Equal(t, 1, view.ProjectCount)
	assert.Equal(t, 2, view.ContractCount)
	// Cancelled contracts count toward nothing; void invoices are excluded.
	assert.True(t, view.TotalContracted.Equal(decimal.RequireFromString("500000")))
	assert.True(t, view.TotalInvoiced.Equal(decimal.RequireFromString("226000")))
	assert.Equal(t, 1, view.OpenInvoiceCount)
	assert.Equal(t, 1, view.OverdueInvoices)
	if assert.NotNil(t, view.LastContractSigned) {
		assert.Equal(t, signed, *view.LastContractSigned)
	}
}

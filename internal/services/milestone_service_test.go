package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
)

type milestoneTestEnv struct {
	svc       *MilestoneService
	milestone *models.ProjectMilestone
	plans     *mockPaymentPlanRepository
	invoices  *mockInvoiceRepository
	created   *[]models.Invoice
	planSaves *[]models.ProjectPaymentPlan
}

// newMilestoneTestEnv wires a milestone service against in-memory repos
// with the given pending payment plans attached to milestone 10.
func newMilestoneTestEnv(t *testing.T, pendingPlans []models.ProjectPaymentPlan) *milestoneTestEnv {
	t.Helper()

	milestone := &models.ProjectMilestone{
		ID:            10,
		ProjectID:     1,
		MilestoneCode: "MS-FAT",
		Name:          "厂内验收",
		Status:        models.MilestoneStatusPending,
	}

	milestoneRepo := &mockMilestoneRepository{
		mockFindByIDForProject: func(ctx context.Context, projectID, id uint) (*models.ProjectMilestone, error) {
			if projectID == milestone.ProjectID && id == milestone.ID {
				return milestone, nil
			}
			return nil, errors.New("record not found")
		},
	}

	created := []models.Invoice{}
	planSaves := []models.ProjectPaymentPlan{}

	invoiceRepo := &mockInvoiceRepository{
		mockMaxCodeForPrefix: func(ctx context.Context, prefix string) (string, error) {
			if len(created) == 0 {
				return "", nil
			}
			return created[len(created)-1].InvoiceCode, nil
		},
		mockCreate: func(ctx context.Context, invoice *models.Invoice) error {
			invoice.ID = uint(100 + len(created))
			created = append(created, *invoice)
			return nil
		},
	}

	planRepo := &mockPaymentPlanRepository{
		mockFindPendingByMilestone: func(ctx context.Context, milestoneID uint) ([]models.ProjectPaymentPlan, error) {
			return pendingPlans, nil
		},
		mockUpdate: func(ctx context.Context, plan *models.ProjectPaymentPlan) error {
			planSaves = append(planSaves, *plan)
			return nil
		},
	}

	repos := &repository.Repositories{
		Milestone:   milestoneRepo,
		PaymentPlan: planRepo,
		Invoice:     invoiceRepo,
	}

	svc := NewMilestoneService(milestoneRepo, &fakeTransactor{repos: repos}, nil, nil, nil)

	return &milestoneTestEnv{
		svc:       svc,
		milestone: milestone,
		plans:     planRepo,
		invoices:  invoiceRepo,
		created:   &created,
		planSaves: &planSaves,
	}
}

func planWithContract(id uint, amount string) models.ProjectPaymentPlan {
	return models.ProjectPaymentPlan{
		ID:            id,
		ProjectID:     1,
		ContractID:    3,
		Name:          fmt.Sprintf("第%d期", id),
		Status:        models.PaymentPlanStatusPending,
		PlannedAmount: decimal.RequireFromString(amount),
		Contract: &models.Contract{
			ID:     3,
			Status: models.ContractStatusActive,
			Customer: &models.Customer{
				Name:  "苏州精密电子",
				TaxNo: "91320500MA1XXXXX0A",
			},
		},
	}
}

func TestCompleteMilestoneInvoiceCascade(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{
		planWithContract(1, "100000.00"),
		planWithContract(2, "50000.00"),
	})

	milestone, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)
	assert.NotNil(t, milestone.ActualDate)

	created := *env.created
	assert.Len(t, created, 2)

	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("060102"))
	assert.Equal(t, prefix+"001", created[0].InvoiceCode)
	assert.Equal(t, prefix+"002", created[1].InvoiceCode)

	// 13% VAT on top of the plan amount
	first := created[0]
	assert.Equal(t, models.InvoiceStatusDraft, first.Status)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("100000.00")))
	assert.True(t, first.TaxAmount.Equal(decimal.RequireFromString("13000.00")),
		"tax amount was %s", first.TaxAmount)
	assert.True(t, first.TotalAmount.Equal(decimal.RequireFromString("113000.00")))
	assert.Equal(t, "苏州精密电子", first.BuyerName)
	assert.Equal(t, first.IssueDate.AddDate(0, 0, 30), first.DueDate)

	// Both plans flipped to INVOICED with the invoice linked
	saves := *env.planSaves
	assert.Len(t, saves, 2)
	assert.Equal(t, models.PaymentPlanStatusInvoiced, saves[0].Status)
	assert.NotNil(t, saves[0].InvoiceID)
	assert.Equal(t, prefix+"001", saves[0].InvoiceNo)
	assert.True(t, saves[0].InvoiceAmount.Equal(decimal.RequireFromString("113000.00")))
}

func TestCompleteMilestoneSkipsContractlessPlans(t *testing.T) {
	orphan := planWithContract(1, "80000.00")
	orphan.Contract = nil

	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{
		orphan,
		planWithContract(2, "20000.00"),
	})

	milestone, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)

	// Only the plan with a contract produced an invoice
	created := *env.created
	assert.Len(t, created, 1)
	assert.True(t, created[0].Amount.Equal(decimal.RequireFromString("20000.00")))
	assert.Len(t, *env.planSaves, 1)
}

func TestCompleteMilestoneIdempotent(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{planWithContract(1, "30000.00")})

	_, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)
	assert.Len(t, *env.created, 1)

	// Re-completing is a no-op and never re-invoices
	milestone, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)
	assert.Len(t, *env.created, 1)
}

func TestCompleteMilestoneWithoutAutoInvoice(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{planWithContract(1, "30000.00")})

	milestone, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, false, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)
	assert.Empty(t, *env.created)
}

func TestCompleteMilestoneActualDatePriority(t *testing.T) {
	env := newMilestoneTestEnv(t, nil)

	given := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	milestone, err := env.svc.CompleteMilestone(context.Background(), 1, 10, &given, true, 5)
	assert.NoError(t, err)
	assert.Equal(t, given, *milestone.ActualDate)
}

func TestCompleteMilestoneUnparsableInvoiceSuffix(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{planWithContract(1, "10000.00")})
	env.invoices.mockMaxCodeForPrefix = func(ctx context.Context, prefix string) (string, error) {
		return prefix + "ABC", nil
	}

	_, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)

	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("060102"))
	assert.Equal(t, prefix+"001", (*env.created)[0].InvoiceCode)
}

func TestCompleteMilestoneInvoiceSequencePastThreeDigits(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{
		planWithContract(1, "10000.00"),
		planWithContract(2, "20000.00"),
	})
	env.invoices.mockMaxCodeForPrefix = func(ctx context.Context, prefix string) (string, error) {
		if len(*env.created) == 0 {
			return prefix + "999", nil
		}
		return (*env.created)[len(*env.created)-1].InvoiceCode, nil
	}

	_, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.NoError(t, err)

	// The sequence keeps counting once the padded width is exhausted.
	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("060102"))
	assert.Equal(t, prefix+"1000", (*env.created)[0].InvoiceCode)
	assert.Equal(t, prefix+"1001", (*env.created)[1].InvoiceCode)
}

type stubProgressChecker struct {
	ok      bool
	missing []string
}

func (s *stubProgressChecker) CheckMilestoneCompletionRequirements(ctx context.Context, milestone *models.ProjectMilestone) (bool, []string, error) {
	return s.ok, s.missing, nil
}

func TestCompleteMilestonePreconditionBlocksMutation(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{planWithContract(1, "10000.00")})
	env.svc.progressChecker = &stubProgressChecker{ok: false, missing: []string{"项目进度 40% 未达到里程碑要求的 80%"}}

	_, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	var precondition *PreconditionError
	assert.ErrorAs(t, err, &precondition)
	assert.Contains(t, err.Error(), "里程碑完成条件未满足")

	// Nothing was mutated before the gate fired
	assert.Equal(t, models.MilestoneStatusPending, env.milestone.Status)
	assert.Empty(t, *env.created)
}

func TestCompleteMilestoneInvoiceFailureRollsBack(t *testing.T) {
	env := newMilestoneTestEnv(t, []models.ProjectPaymentPlan{planWithContract(1, "10000.00")})
	env.invoices.mockCreate = func(ctx context.Context, invoice *models.Invoice) error {
		return errors.New("insert failed")
	}

	_, err := env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "创建发票失败")
	assert.Empty(t, *env.planSaves)
}

func TestCancelMilestone(t *testing.T) {
	env := newMilestoneTestEnv(t, nil)

	milestone, err := env.svc.CancelMilestone(context.Background(), 1, 10, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCancelled, milestone.Status)

	// A cancelled milestone cannot be completed
	_, err = env.svc.CompleteMilestone(context.Background(), 1, 10, nil, true, 5)
	assert.Error(t, err)
}

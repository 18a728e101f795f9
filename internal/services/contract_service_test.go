package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type contractTestEnv struct {
	svc          *ContractService
	contract     *models.Contract
	contractRepo *mockContractRepository
	projectRepo  *mockProjectRepository
	planRepo     *mockPaymentPlanRepository

	createdProjects []*models.Project
	savedPlans      []*models.ProjectPaymentPlan
	plans           []models.ProjectPaymentPlan
}

func newContractTestEnv(t *testing.T, status string) *contractTestEnv {
	t.Helper()

	env := &contractTestEnv{
		contract: &models.Contract{
			ID:           5,
			ContractCode: "CT-26080001",
			CustomerID:   9,
			Name:         "涂布产线改造合同",
			Amount:       decimal.RequireFromString("500000"),
			Status:       status,
		},
	}

	env.contractRepo = &mockContractRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Contract, error) {
			if id != env.contract.ID {
				return nil, fmt.Errorf("record not found")
			}
			return env.contract, nil
		},
	}
	env.projectRepo = &mockProjectRepository{
		mockMaxCodeForPrefix: func(ctx context.Context, prefix string) (string, error) {
			return "", nil
		},
		mockCreate: func(ctx context.Context, project *models.Project) error {
			project.ID = 77
			env.createdProjects = append(env.createdProjects, project)
			return nil
		},
	}
	env.planRepo = &mockPaymentPlanRepository{
		mockFindByContract: func(ctx context.Context, contractID uint) ([]models.ProjectPaymentPlan, error) {
			return env.plans, nil
		},
		mockUpdate: func(ctx context.Context, plan *models.ProjectPaymentPlan) error {
			env.savedPlans = append(env.savedPlans, plan)
			return nil
		},
	}

	repos := &repository.Repositories{
		Contract:    env.contractRepo,
		Project:     env.projectRepo,
		PaymentPlan: env.planRepo,
	}
	env.svc = NewContractService(env.contractRepo, &fakeTransactor{repos: repos}, nil, nil, nil)
	return env
}

func TestCreateContractCode(t *testing.T) {
	prefix := fmt.Sprintf("CT-%s", time.Now().Format("0601"))

	repo := &mockContractRepository{
		mockMaxCodeForPrefix: func(ctx context.Context, p string) (string, error) {
			assert.Equal(t, prefix, p)
			return prefix + "0012", nil
		},
	}
	svc := NewContractService(repo, nil, nil, nil, nil)

	contract, err := svc.CreateContract(context.Background(), CreateContractInput{
		CustomerID: 9,
		Name:       "检测设备采购合同",
		Amount:     decimal.RequireFromString("120000"),
	}, 1)

	assert.NoError(t, err)
	assert.Equal(t, prefix+"0013", contract.ContractCode)
	assert.Equal(t, models.ContractStatusDraft, contract.Status)
	assert.NotEmpty(t, contract.GUID)
}

func TestSubmitClearsRejectionReason(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusRejected)
	reason := "金额超出授权"
	env.contract.RejectionReason = &reason

	contract, err := env.svc.Submit(context.Background(), 5, 1)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusSubmitted, contract.Status)
	assert.Nil(t, contract.RejectionReason)
}

func TestApproveSetsTimestamp(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusSubmitted)

	contract, err := env.svc.Approve(context.Background(), 5, 1)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusApproved, contract.Status)
	assert.NotNil(t, contract.ApprovedAt)
}

func TestApproveRequiresSubmitted(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusDraft)

	_, err := env.svc.Approve(context.Background(), 5, 1)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "合同当前状态不允许审批通过")
	assert.Equal(t, models.ContractStatusDraft, env.contract.Status)
}

func TestRejectStoresReason(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusSubmitted)

	contract, err := env.svc.Reject(context.Background(), 5, "缺少技术协议附件", 1)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusRejected, contract.Status)
	if assert.NotNil(t, contract.RejectionReason) {
		assert.Equal(t, "缺少技术协议附件", *contract.RejectionReason)
	}
}

func TestActivateCreatesProjectAndLinksPlans(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusApproved)
	env.plans = []models.ProjectPaymentPlan{
		{ID: 21, ContractID: 5, Status: models.PaymentPlanStatusPending},
		{ID: 22, ContractID: 5, ProjectID: 42, Status: models.PaymentPlanStatusPending},
	}

	managerID := uint(3)
	contract, project, err := env.svc.Activate(context.Background(), 5, ActivateInput{
		ProjectName:  "涂布产线改造项目",
		ManagerID:    &managerID,
		BudgetAmount: decimal.RequireFromString("420000"),
	}, 1)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, contract.Status)

	if assert.NotNil(t, project) {
		prefix := fmt.Sprintf("PJ%s", time.Now().Format("060102"))
		assert.Equal(t, prefix+"01", project.ProjectCode)
		assert.Equal(t, "涂布产线改造项目", project.Name)
		if assert.NotNil(t, project.CustomerID) {
			assert.Equal(t, uint(9), *project.CustomerID)
		}
		if assert.NotNil(t, project.ContractID) {
			assert.Equal(t, uint(5), *project.ContractID)
		}
		assert.Equal(t, models.StageS1, project.Stage)
		assert.Equal(t, models.HealthNormal, project.Health)
		assert.True(t, project.ProgressPct.IsZero())
		assert.True(t, project.ContractAmount.Equal(env.contract.Amount))
	}

	// Only the unlinked plan picks up the new project.
	if assert.Len(t, env.savedPlans, 1) {
		assert.Equal(t, uint(21), env.savedPlans[0].ID)
		assert.Equal(t, uint(77), env.savedPlans[0].ProjectID)
	}
}

func TestActivateDefaultsProjectName(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusApproved)

	_, project, err := env.svc.Activate(context.Background(), 5, ActivateInput{}, 1)

	assert.NoError(t, err)
	if assert.NotNil(t, project) {
		assert.Equal(t, env.contract.Name, project.Name)
	}
}

func TestActivateRequiresApproved(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusDraft)

	_, _, err := env.svc.Activate(context.Background(), 5, ActivateInput{}, 1)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "合同当前状态不允许生效")
	assert.Empty(t, env.createdProjects)
}

func TestCancelAndCloseContract(t *testing.T) {
	env := newContractTestEnv(t, models.ContractStatusDraft)
	contract, err := env.svc.Cancel(context.Background(), 5, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, contract.Status)

	env = newContractTestEnv(t, models.ContractStatusActive)
	contract, err = env.svc.Close(context.Background(), 5, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusClosed, contract.Status)
}

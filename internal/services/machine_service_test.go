package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
)

func TestValidateStageTransition(t *testing.T) {
	stages := []string{
		models.StageS1, models.StageS2, models.StageS3,
		models.StageS4, models.StageS5, models.StageS6,
		models.StageS7, models.StageS8, models.StageS9,
	}

	// Every ordered pair follows from three rules: S9 never moves,
	// regressions are rejected with both stages named, everything
	// forward (including self-transitions below S9) is allowed.
	for _, from := range stages {
		for _, to := range stages {
			ok, msg := ValidateStageTransition(from, to)
			switch {
			case from == models.StageS9:
				assert.False(t, ok, "%s -> %s", from, to)
				assert.Equal(t, "S9是终态，无法变更阶段", msg)
			case models.StagePriority[to] < models.StagePriority[from]:
				assert.False(t, ok, "%s -> %s", from, to)
				assert.Equal(t, fmt.Sprintf("阶段只能向前推进，不能从 %s 回退到 %s", from, to), msg)
			default:
				assert.True(t, ok, "%s -> %s", from, to)
				assert.Empty(t, msg)
			}
		}
	}
}

func TestValidateStageTransitionUnknownStages(t *testing.T) {
	ok, msg := ValidateStageTransition("S0", models.StageS2)
	assert.False(t, ok)
	assert.Equal(t, "无效的当前阶段", msg)

	ok, msg = ValidateStageTransition(models.StageS2, "S10")
	assert.False(t, ok)
	assert.Equal(t, "无效的目标阶段", msg)

	// An invalid current stage wins over an invalid target
	ok, msg = ValidateStageTransition("", "")
	assert.False(t, ok)
	assert.Equal(t, "无效的当前阶段", msg)
}

func TestValidateStageTransitionAllowsSkips(t *testing.T) {
	ok, msg := ValidateStageTransition(models.StageS1, models.StageS9)
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = ValidateStageTransition(models.StageS3, models.StageS7)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func newTestMachineService(machineRepo *mockMachineRepository, projectRepo *mockProjectRepository) *MachineService {
	aggregation := NewAggregationService(projectRepo, machineRepo)
	return NewMachineService(machineRepo, projectRepo, aggregation, nil)
}

func TestGenerateMachineCode(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id, ProjectCode: "PJ26082801"}, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockMaxMachineNo: func(ctx context.Context, projectID uint) (int, error) {
			return 7, nil
		},
	}
	svc := newTestMachineService(machineRepo, projectRepo)

	code, no, err := svc.GenerateMachineCode(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 8, no)
	assert.Equal(t, "PJ26082801-PN008", code)
}

func TestGenerateMachineCodeFirstMachine(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id, ProjectCode: "PJ26082801"}, nil
		},
	}
	machineRepo := &mockMachineRepository{}
	svc := newTestMachineService(machineRepo, projectRepo)

	code, no, err := svc.GenerateMachineCode(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, no)
	assert.Equal(t, "PJ26082801-PN001", code)
}

func TestCreateMachineDefaultsAndAggregation(t *testing.T) {
	var createdMachine *models.Machine
	var updatedProject *models.Project

	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id, ProjectCode: "PJ26082801"}, nil
		},
		mockUpdate: func(ctx context.Context, project *models.Project) error {
			updatedProject = project
			return nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockCreate: func(ctx context.Context, machine *models.Machine) error {
			machine.ID = 11
			createdMachine = machine
			return nil
		},
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			if createdMachine == nil {
				return nil, nil
			}
			return []models.Machine{*createdMachine}, nil
		},
	}
	svc := newTestMachineService(machineRepo, projectRepo)

	machine, err := svc.CreateMachine(context.Background(), 1, CreateMachineInput{Name: "贴标机"}, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.StageS1, machine.Stage)
	assert.Equal(t, models.HealthNormal, machine.Health)
	assert.Equal(t, 1, machine.MachineNo)
	assert.Equal(t, "PJ26082801-PN001", machine.MachineCode)

	// The project aggregate was rewritten from the machine list
	assert.NotNil(t, updatedProject)
	assert.Equal(t, models.StageS1, updatedProject.Stage)
	assert.Equal(t, models.HealthNormal, updatedProject.Health)
}

func TestCreateMachineDuplicateCode(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id, ProjectCode: "PJ26082801"}, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockCodeExists: func(ctx context.Context, projectID uint, code string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestMachineService(machineRepo, projectRepo)

	_, err := svc.CreateMachine(context.Background(), 1, CreateMachineInput{Name: "装配机"}, 5)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateMachineStatusForwardOnly(t *testing.T) {
	machine := &models.Machine{ID: 1, ProjectID: 2, Stage: models.StageS5, Health: models.HealthNormal}

	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id}, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Machine, error) {
			return machine, nil
		},
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			return []models.Machine{*machine}, nil
		},
	}
	svc := newTestMachineService(machineRepo, projectRepo)

	back := models.StageS3
	_, err := svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{Stage: &back}, 5)
	assert.Error(t, err)
	assert.Equal(t, "阶段只能向前推进，不能从 S5 回退到 S3", err.Error())
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)

	forward := models.StageS7
	updated, err := svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{Stage: &forward}, 5)
	assert.NoError(t, err)
	assert.Equal(t, models.StageS7, updated.Stage)
}

func TestUpdateMachineStatusTerminal(t *testing.T) {
	machine := &models.Machine{ID: 1, ProjectID: 2, Stage: models.StageS9, Health: models.HealthClosed}

	machineRepo := &mockMachineRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Machine, error) {
			return machine, nil
		},
	}
	svc := newTestMachineService(machineRepo, &mockProjectRepository{})

	same := models.StageS9
	_, err := svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{Stage: &same}, 5)
	assert.Error(t, err)
	assert.Equal(t, "S9是终态，无法变更阶段", err.Error())
}

func TestUpdateMachineStatusValidation(t *testing.T) {
	machine := &models.Machine{ID: 1, ProjectID: 2, Stage: models.StageS2, Health: models.HealthNormal}

	machineRepo := &mockMachineRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Machine, error) {
			return machine, nil
		},
	}
	svc := newTestMachineService(machineRepo, &mockProjectRepository{})

	badHealth := "H9"
	_, err := svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{Health: &badHealth}, 5)
	assert.Error(t, err)
	assert.Equal(t, "无效的健康度: H9", err.Error())

	over := decimal.NewFromInt(120)
	_, err = svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{ProgressPct: &over}, 5)
	assert.Error(t, err)
	assert.Equal(t, "进度必须在 0 到 100 之间", err.Error())

	negative := decimal.NewFromInt(-1)
	_, err = svc.UpdateMachineStatus(context.Background(), 1, UpdateMachineStatusInput{ProgressPct: &negative}, 5)
	assert.Error(t, err)
}

package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
)

func machinesWith(progress ...string) []models.Machine {
	machines := make([]models.Machine, 0, len(progress))
	for _, p := range progress {
		machines = append(machines, models.Machine{
			Stage:       models.StageS1,
			Health:      models.HealthNormal,
			ProgressPct: decimal.RequireFromString(p),
		})
	}
	return machines
}

func TestMeanProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress []string
		expected string
	}{
		{"no machines", nil, "0"},
		{"single machine", []string{"42.5"}, "42.5"},
		{"plain mean", []string{"10", "20", "30"}, "20"},
		{"two decimals", []string{"33.33", "66.66"}, "50"},
		// banker's rounding: 10/3 = 3.333.. -> 3.33, .125 halves go to even
		{"repeating third", []string{"0", "0", "10"}, "3.33"},
		{"half to even down", []string{"0.25", "0"}, "0.12"},
		{"half to even up", []string{"0.75", "0"}, "0.38"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := meanProgress(machinesWith(tt.progress...))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, got)
		})
	}
}

func TestMinStage(t *testing.T) {
	stageSet := func(stages ...string) []models.Machine {
		machines := make([]models.Machine, 0, len(stages))
		for _, s := range stages {
			machines = append(machines, models.Machine{Stage: s, Health: models.HealthNormal})
		}
		return machines
	}

	assert.Equal(t, models.StageS1, minStage(nil))
	assert.Equal(t, models.StageS3, minStage(stageSet("S5", "S3", "S9")))
	assert.Equal(t, models.StageS9, minStage(stageSet("S9", "S9")))
	// unrecognized stages are skipped
	assert.Equal(t, models.StageS4, minStage(stageSet("??", "S4")))
	assert.Equal(t, models.StageS1, minStage(stageSet("??", "")))
}

func TestRollupHealth(t *testing.T) {
	healthSet := func(healths ...string) []models.Machine {
		machines := make([]models.Machine, 0, len(healths))
		for _, h := range healths {
			machines = append(machines, models.Machine{Stage: models.StageS1, Health: h})
		}
		return machines
	}

	tests := []struct {
		name     string
		healths  []string
		expected string
	}{
		{"no machines", nil, models.HealthNormal},
		{"all normal", []string{"H1", "H1"}, models.HealthNormal},
		{"blocked wins over everything", []string{"H1", "H2", "H3", "H4"}, models.HealthBlocked},
		{"at risk wins over normal and closed", []string{"H1", "H2", "H4"}, models.HealthAtRisk},
		{"all closed", []string{"H4", "H4", "H4"}, models.HealthClosed},
		{"one normal blocks the closed rollup", []string{"H4", "H4", "H1"}, models.HealthNormal},
		{"unrecognized values are skipped", []string{"H7", "H4"}, models.HealthClosed},
		{"only unrecognized values", []string{"H7"}, models.HealthNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rollupHealth(healthSet(tt.healths...)))
		})
	}
}

func TestUpdateProjectAggregationAlwaysWrites(t *testing.T) {
	updates := 0
	project := &models.Project{
		ID:          1,
		Stage:       models.StageS2,
		Health:      models.HealthNormal,
		ProgressPct: decimal.RequireFromString("40.00"),
	}

	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return project, nil
		},
		mockUpdate: func(ctx context.Context, p *models.Project) error {
			updates++
			return nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			return []models.Machine{
				{Stage: models.StageS2, Health: models.HealthNormal, ProgressPct: decimal.RequireFromString("40.00")},
			}, nil
		},
	}
	svc := NewAggregationService(projectRepo, machineRepo)

	// Nothing changes, but the write still happens
	updated, err := svc.UpdateProjectAggregation(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, updates)
	assert.Equal(t, models.StageS2, updated.Stage)
	assert.True(t, updated.ProgressPct.Equal(decimal.RequireFromString("40")))
}

func TestUpdateProjectAggregationEmptyProject(t *testing.T) {
	project := &models.Project{
		ID:          1,
		Stage:       models.StageS6,
		Health:      models.HealthBlocked,
		ProgressPct: decimal.RequireFromString("88.00"),
	}

	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return project, nil
		},
	}
	machineRepo := &mockMachineRepository{}
	svc := NewAggregationService(projectRepo, machineRepo)

	// With no machines the project resets to S1/H1/0.00
	updated, err := svc.UpdateProjectAggregation(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.StageS1, updated.Stage)
	assert.Equal(t, models.HealthNormal, updated.Health)
	assert.True(t, updated.ProgressPct.IsZero())
}

func TestGetProjectMachineSummary(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id}, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			return []models.Machine{
				{Stage: models.StageS9, Health: models.HealthClosed, ProgressPct: decimal.NewFromInt(100)},
				{Stage: models.StageS5, Health: models.HealthAtRisk, ProgressPct: decimal.NewFromInt(60)},
				{Stage: models.StageS5, Health: models.HealthBlocked, ProgressPct: decimal.NewFromInt(20)},
			}, nil
		},
	}
	svc := NewAggregationService(projectRepo, machineRepo)

	summary, err := svc.GetProjectMachineSummary(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.TotalMachines)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 1, summary.AtRiskCount)
	assert.Equal(t, 1, summary.BlockedCount)
	assert.Equal(t, 2, summary.StageDistribution[models.StageS5])
	assert.Equal(t, 1, summary.HealthDistribution[models.HealthClosed])
	assert.True(t, summary.AvgProgress.Equal(decimal.NewFromInt(60)))
}

func TestGetProjectMachineSummaryEmpty(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id}, nil
		},
	}
	svc := NewAggregationService(projectRepo, &mockMachineRepository{})

	summary, err := svc.GetProjectMachineSummary(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalMachines)
	assert.Empty(t, summary.StageDistribution)
	assert.Empty(t, summary.HealthDistribution)
	assert.True(t, summary.AvgProgress.IsZero())
}

package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestExportMachinesCSV(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: 1, ProjectCode: "PJ26082801"}, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			return []models.Machine{
				{MachineCode: "PJ26082801-PN001", Name: "上料机械手", Stage: models.StageS3,
					Health: models.HealthNormal, ProgressPct: decimal.RequireFromString("35.50")},
				{MachineCode: "PJ26082801-PN002", Name: "检测工位", Stage: models.StageS9,
					Health: models.HealthNormal, ProgressPct: decimal.RequireFromString("100.00")},
			}, nil
		},
	}
	svc := NewExportService(nil, projectRepo, machineRepo)

	data, filename, err := svc.ExportMachinesCSV(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, "machines_PJ26082801.csv", filename)
	assert.Contains(t, string(data), "PJ26082801-PN001")
	assert.Contains(t, string(data), "35.50")
}

func TestExportMachinesCSVProjectNotFound(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Project, error) {
			return nil, assert.AnError
		},
	}
	svc := NewExportService(nil, projectRepo, &mockMachineRepository{})

	_, _, err := svc.ExportMachinesCSV(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportProjectsXLSX(t *testing.T) {
	projectRepo := &mockProjectRepository{
		mockList: func(ctx context.Context, query *repository.ListQuery) ([]models.Project, int64, error) {
			return []models.Project{
				{ID: 1, ProjectCode: "PJ26082801", Name: "涂布产线改造项目",
					Stage: models.StageS3, Health: models.HealthNormal,
					ProgressPct: decimal.RequireFromString("35.50")},
			}, 1, nil
		},
	}
	machineRepo := &mockMachineRepository{
		mockFindByProject: func(ctx context.Context, projectID uint) ([]models.Machine, error) {
			return []models.Machine{{MachineCode: "PJ26082801-PN001"}}, nil
		},
	}
	svc := NewExportService(nil, projectRepo, machineRepo)

	data, filename, err := svc.ExportProjectsXLSX(context.Background())

	assert.NoError(t, err)
	assert.Contains(t, filename, "projects_")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Projects")
	assert.NoError(t, err)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "PJ26082801", rows[1][0])
	}
}

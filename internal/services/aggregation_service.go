package services

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// AggregationService derives project-level progress, stage and health
// from the project's machines. The project row never carries
// authoritative lifecycle state of its own.
type AggregationService struct {
	projectRepo repository.ProjectRepository
	machineRepo repository.MachineRepository
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(projectRepo repository.ProjectRepository, machineRepo repository.MachineRepository) *AggregationService {
	return &AggregationService{
		projectRepo: projectRepo,
		machineRepo: machineRepo,
	}
}

// MachineSummary is the per-project machine rollup
type MachineSummary struct {
	TotalMachines      int             `json:"total_machines"`
	StageDistribution  map[string]int  `json:"stage_distribution"`
	HealthDistribution map[string]int  `json:"health_distribution"`
	AvgProgress        decimal.Decimal `json:"avg_progress"`
	CompletedCount     int             `json:"completed_count"`
	AtRiskCount        int             `json:"at_risk_count"`
	BlockedCount       int             `json:"blocked_count"`
}

// CalculateProjectProgress returns the mean machine progress, rounded
// to 2dp with banker's rounding. No machines means 0.00.
func (s *AggregationService) CalculateProjectProgress(ctx context.Context, projectID uint) (decimal.Decimal, error) {
	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	return meanProgress(machines), nil
}

func meanProgress(machines []models.Machine) decimal.Decimal {
	if len(machines) == 0 {
		return decimal.Zero.Round(2)
	}
	sum := decimal.Zero
	for _, m := range machines {
		sum = sum.Add(m.ProgressPct)
	}
	return sum.Div(decimal.NewFromInt(int64(len(machines)))).RoundBank(2)
}

// CalculateProjectStage returns the least-advanced recognized stage
// among the project's machines. A project is only as far along as its
// slowest machine. Unrecognized stage values are skipped, and a project
// with no usable stages reports S1.
func (s *AggregationService) CalculateProjectStage(ctx context.Context, projectID uint) (string, error) {
	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return minStage(machines), nil
}

func minStage(machines []models.Machine) string {
	stage := ""
	best := 0
	for _, m := range machines {
		prio, ok := models.StagePriority[m.Stage]
		if !ok {
			continue
		}
		if stage == "" || prio < best {
			stage = m.Stage
			best = prio
		}
	}
	if stage == "" {
		return models.StageS1
	}
	return stage
}

// CalculateProjectHealth rolls machine health up to the project. Any
// blocked machine blocks the project, then any at-risk machine marks it
// at risk. A project reads closed only when every recognized machine is
// closed. Everything else is normal, including the no-machine case.
func (s *AggregationService) CalculateProjectHealth(ctx context.Context, projectID uint) (string, error) {
	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return rollupHealth(machines), nil
}

func rollupHealth(machines []models.Machine) string {
	recognized := 0
	closed := 0
	anyAtRisk := false
	for _, m := range machines {
		if !models.ValidHealth(m.Health) {
			continue
		}
		recognized++
		switch m.Health {
		case models.HealthBlocked:
			return models.HealthBlocked
		case models.HealthAtRisk:
			anyAtRisk = true
		case models.HealthClosed:
			closed++
		}
	}
	if anyAtRisk {
		return models.HealthAtRisk
	}
	if recognized > 0 && closed == recognized {
		return models.HealthClosed
	}
	return models.HealthNormal
}

// UpdateProjectAggregation recomputes progress, stage and health and
// persists them on the project in one write. The write always happens,
// even when nothing changed, so updated_at tracks the last
// machine mutation.
func (s *AggregationService) UpdateProjectAggregation(ctx context.Context, projectID uint) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, ErrNotFound
	}

	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load machines: %w", err)
	}

	project.ProgressPct = meanProgress(machines)
	project.Stage = minStage(machines)
	project.Health = rollupHealth(machines)

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to persist project aggregation: %w", err)
	}

	logger.Debug("project aggregation updated",
		"project_code", project.ProjectCode,
		"progress", project.ProgressPct.String(),
		"stage", project.Stage,
		"health", project.Health,
	)

	return project, nil
}

// GetProjectMachineSummary builds the machine distribution rollup for a
// project. All counters are zero and the distributions empty when the
// project has no machines.
func (s *AggregationService) GetProjectMachineSummary(ctx context.Context, projectID uint) (*MachineSummary, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, ErrNotFound
	}

	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &MachineSummary{
		TotalMachines:      len(machines),
		StageDistribution:  map[string]int{},
		HealthDistribution: map[string]int{},
		AvgProgress:        meanProgress(machines),
	}

	for _, m := range machines {
		summary.StageDistribution[m.Stage]++
		summary.HealthDistribution[m.Health]++
		if m.Stage == models.StageS9 {
			summary.CompletedCount++
		}
		switch m.Health {
		case models.HealthAtRisk:
			summary.AtRiskCount++
		case models.HealthBlocked:
			summary.BlockedCount++
		}
	}

	return summary, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
)

// ProgressChecker gates milestone completion on delivery progress.
// Implementations return ok=false with the list of unmet requirements,
// which aborts the completion before any mutation.
type ProgressChecker interface {
	CheckMilestoneCompletionRequirements(ctx context.Context, milestone *models.ProjectMilestone) (bool, []string, error)
}

// ProgressIntegrationService is the default gate: when a milestone
// declares a progress threshold, the project's aggregated progress must
// have reached it.
type ProgressIntegrationService struct {
	projectRepo repository.ProjectRepository
}

// NewProgressIntegrationService creates the default progress gate
func NewProgressIntegrationService(projectRepo repository.ProjectRepository) *ProgressIntegrationService {
	return &ProgressIntegrationService{projectRepo: projectRepo}
}

// CheckMilestoneCompletionRequirements verifies the milestone's
// progress threshold against the owning project.
func (s *ProgressIntegrationService) CheckMilestoneCompletionRequirements(ctx context.Context, milestone *models.ProjectMilestone) (bool, []string, error) {
	if milestone.ProgressThreshold == nil {
		return true, nil, nil
	}

	project, err := s.projectRepo.FindByID(ctx, milestone.ProjectID)
	if err != nil {
		return false, nil, ErrNotFound
	}

	if project.ProgressPct.LessThan(*milestone.ProgressThreshold) {
		missing := []string{
			fmt.Sprintf("项目进度 %s%% 未达到里程碑要求的 %s%%",
				project.ProgressPct.StringFixed(2), milestone.ProgressThreshold.StringFixed(2)),
		}
		return false, missing, nil
	}

	return true, nil, nil
}

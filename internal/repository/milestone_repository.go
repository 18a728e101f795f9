package repository

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"gorm.io/gorm"
)

// MilestoneRepository defines the interface for milestone data access
type MilestoneRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ProjectMilestone, error)
	FindByIDForProject(ctx context.Context, projectID, id uint) (*models.ProjectMilestone, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.ProjectMilestone, error)
	Create(ctx context.Context, milestone *models.ProjectMilestone) error
	Update(ctx context.Context, milestone *models.ProjectMilestone) error
	Delete(ctx context.Context, id uint) error
}

type milestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) FindByID(ctx context.Context, id uint) (*models.ProjectMilestone, error) {
	var milestone models.ProjectMilestone
	err := r.db.WithContext(ctx).First(&milestone, id).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepository) FindByIDForProject(ctx context.Context, projectID, id uint) (*models.ProjectMilestone, error) {
	var milestone models.ProjectMilestone
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&milestone, id).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepository) FindByProject(ctx context.Context, projectID uint) ([]models.ProjectMilestone, error) {
	var milestones []models.ProjectMilestone
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("planned_date ASC").
		Find(&milestones).Error
	return milestones, err
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *models.ProjectMilestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

func (r *milestoneRepository) Update(ctx context.Context, milestone *models.ProjectMilestone) error {
	return r.db.WithContext(ctx).Save(milestone).Error
}

func (r *milestoneRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ProjectMilestone{}, id).Error
}

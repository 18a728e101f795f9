package repository

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"gorm.io/gorm"
)

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Project, error)
	FindByCode(ctx context.Context, code string) (*models.Project, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Project, int64, error)
	MaxCodeForPrefix(ctx context.Context, prefix string) (string, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Contract").
		Preload("Machines", func(db *gorm.DB) *gorm.DB {
			return db.Order("machine_no ASC")
		}).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("planned_date ASC")
		}).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByCode(ctx context.Context, code string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("project_code = ?", code).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, id).Error
}

func (r *projectRepository) List(ctx context.Context, query *ListQuery) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Project{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("project_code ILIKE ? OR name ILIKE ?", search, search)
	}
	if val := query.Filters["stage"]; val != "" {
		db = db.Where("stage = ?", val)
	}
	if val := query.Filters["health"]; val != "" {
		db = db.Where("health = ?", val)
	}
	if val := query.Filters["customer_id"]; val != "" {
		db = db.Where("customer_id = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "created_at DESC")
	db = applyPagination(db, query)

	err := db.Preload("Customer").Preload("Machines").Find(&projects).Error
	return projects, total, err
}

// MaxCodeForPrefix returns the lexically largest code starting with the
// given prefix, or empty string if none exists. Callers parse the numeric
// suffix to allocate the next sequence number.
func (r *projectRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Select("COALESCE(MAX(project_code), '')").
		Where("project_code LIKE ?", prefix+"%").
		Scan(&code).Error
	return code, err
}

package repository

import (
	"context"

	"github.com/apexmach/erp-api/internal/models"
	"gorm.io/gorm"
)

// MachineRepository defines the interface for machine data access
type MachineRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Machine, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.Machine, error)
	MaxMachineNo(ctx context.Context, projectID uint) (int, error)
	CodeExists(ctx context.Context, projectID uint, code string) (bool, error)
	Create(ctx context.Context, machine *models.Machine) error
	Update(ctx context.Context, machine *models.Machine) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, projectID uint, query *ListQuery) ([]models.Machine, int64, error)
}

type machineRepository struct {
	db *gorm.DB
}

// NewMachineRepository creates a new machine repository
func NewMachineRepository(db *gorm.DB) MachineRepository {
	return &machineRepository{db: db}
}

func (r *machineRepository) FindByID(ctx context.Context, id uint) (*models.Machine, error) {
	var machine models.Machine
	err := r.db.WithContext(ctx).First(&machine, id).Error
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Machine, error) {
	var machines []models.Machine
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("machine_no ASC").
		Find(&machines).Error
	return machines, err
}

// MaxMachineNo returns the highest sequence number assigned to the
// project's machines, 0 when the project has none. Numbers are never
// reused after deletion.
func (r *machineRepository) MaxMachineNo(ctx context.Context, projectID uint) (int, error) {
	var maxNo int
	err := r.db.WithContext(ctx).
		Model(&models.Machine{}).
		Select("COALESCE(MAX(machine_no), 0)").
		Where("project_id = ?", projectID).
		Scan(&maxNo).Error
	return maxNo, err
}

func (r *machineRepository) CodeExists(ctx context.Context, projectID uint, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Machine{}).
		Where("project_id = ? AND machine_code = ?", projectID, code).
		Count(&count).Error
	return count > 0, err
}

func (r *machineRepository) Create(ctx context.Context, machine *models.Machine) error {
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *machineRepository) Update(ctx context.Context, machine *models.Machine) error {
	return r.db.WithContext(ctx).Save(machine).Error
}

func (r *machineRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Machine{}, id).Error
}

func (r *machineRepository) List(ctx context.Context, projectID uint, query *ListQuery) ([]models.Machine, int64, error) {
	var machines []models.Machine
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Machine{}).Where("project_id = ?", projectID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("machine_code ILIKE ? OR name ILIKE ?", search, search)
	}
	if val := query.Filters["stage"]; val != "" {
		db = db.Where("stage = ?", val)
	}
	if val := query.Filters["health"]; val != "" {
		db = db.Where("health = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "machine_no ASC")
	db = applyPagination(db, query)

	err := db.Find(&machines).Error
	return machines, total, err
}

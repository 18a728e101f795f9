package database

import (
	"fmt"
	"os"
	"time"

	"github.com/apexmach/erp-api/internal/models"
	pkgLogger "github.com/apexmach/erp-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	gormLogger := pkgLogger.NewGormLogger(
		os.Getenv("ENVIRONMENT"),
		200*time.Millisecond,
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		// Payment plans reference a project only after contract
		// activation, so FK constraints are not generated.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate runs the schema migration for all domain models. The unique
// index on (project_id, machine_code) is the authoritative backstop for
// concurrent machine code generation.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Customer{},
		&models.Lead{},
		&models.Opportunity{},
		&models.Quote{},
		&models.Contract{},
		&models.Project{},
		&models.Machine{},
		&models.ProjectMilestone{},
		&models.ProjectPaymentPlan{},
		&models.Invoice{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

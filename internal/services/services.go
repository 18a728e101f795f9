package services

import (
	"github.com/apexmach/erp-api/internal/config"
	"github.com/apexmach/erp-api/internal/jobs"
	"github.com/apexmach/erp-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Sales        *SalesService
	Contract     *ContractService
	Project      *ProjectService
	Machine      *MachineService
	Milestone    *MilestoneService
	Aggregation  *AggregationService
	Invoice      *InvoiceService
	Notification *NotificationService
	Report       *ReportService
	Export       *ExportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices wires all services with their dependencies
func NewServices(repos *repository.Repositories, transactor repository.Transactor, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	auditSvc := NewAuditService(db)

	aggregationSvc := NewAggregationService(repos.Project, repos.Machine)
	progressGate := NewProgressIntegrationService(repos.Project)
	projectSvc := NewProjectService(repos.Project, repos.Milestone, aggregationSvc, auditSvc)
	reportSvc := NewReportService(db)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User, auditSvc),
		Sales:        NewSalesService(repos.Customer, repos.Lead, repos.Opportunity, repos.Quote, repos.Contract, transactor, auditSvc),
		Contract:     NewContractService(repos.Contract, transactor, projectSvc, notificationSvc, auditSvc),
		Project:      projectSvc,
		Machine:      NewMachineService(repos.Machine, repos.Project, aggregationSvc, auditSvc),
		Milestone:    NewMilestoneService(repos.Milestone, transactor, progressGate, notificationSvc, auditSvc),
		Aggregation:  aggregationSvc,
		Invoice:      NewInvoiceService(repos.Invoice, repos.PaymentPlan, notificationSvc, auditSvc),
		Notification: notificationSvc,
		Report:       reportSvc,
		Export:       NewExportService(reportSvc, repos.Project, repos.Machine),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}

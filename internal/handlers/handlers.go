package handlers

import (
	"github.com/apexmach/erp-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Customer     *CustomerHandler
	Pipeline     *PipelineHandler
	Contract     *ContractHandler
	Project      *ProjectHandler
	Machine      *MachineHandler
	Milestone    *MilestoneHandler
	Invoice      *InvoiceHandler
	Report       *ReportHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Customer:     NewCustomerHandler(svcs.Sales),
		Pipeline:     NewPipelineHandler(svcs.Sales),
		Contract:     NewContractHandler(svcs.Contract),
		Project:      NewProjectHandler(svcs.Project, svcs.Aggregation),
		Machine:      NewMachineHandler(svcs.Machine),
		Milestone:    NewMilestoneHandler(svcs.Milestone),
		Invoice:      NewInvoiceHandler(svcs.Invoice),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}

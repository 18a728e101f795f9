package services

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/pkg/logger"
)

// NotificationService creates and manages in-app notifications.
// Delivery failures are logged and never bubble up into the business
// operation that triggered them.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

// Create stores a notification for a user
func (s *NotificationService) Create(ctx context.Context, userID uint, title, message string, notificationType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notificationType,
	}
	return s.repo.Create(ctx, notification)
}

// notifyAdmins fans a notification out to every admin account
func (s *NotificationService) notifyAdmins(ctx context.Context, title, message, notificationType string) {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		logger.Error("failed to load admins for notification", "error", err)
		return
	}
	for _, admin := range admins {
		if err := s.Create(ctx, admin.ID, title, message, notificationType); err != nil {
			logger.Error("failed to create notification", "user_id", admin.ID, "error", err)
		}
	}
}

// NotifyMilestoneCompleted informs admins a milestone completed and how
// many invoices the cascade produced.
func (s *NotificationService) NotifyMilestoneCompleted(ctx context.Context, milestone *models.ProjectMilestone, invoices []models.Invoice) {
	message := fmt.Sprintf("里程碑 %s (%s) 已完成", milestone.MilestoneCode, milestone.Name)
	if len(invoices) > 0 {
		message = fmt.Sprintf("%s，自动生成 %d 张开票申请", message, len(invoices))
	}
	s.notifyAdmins(ctx, "里程碑完成", message, models.NotificationTypeMilestoneCompleted)
}

// NotifyContractSubmitted informs admins a contract awaits approval
func (s *NotificationService) NotifyContractSubmitted(ctx context.Context, contract *models.Contract) {
	message := fmt.Sprintf("合同 %s (%s) 已提交审批", contract.ContractCode, contract.Name)
	s.notifyAdmins(ctx, "合同待审批", message, models.NotificationTypeContractSubmitted)
}

// NotifyContractDecision informs the contract owner of the approval outcome
func (s *NotificationService) NotifyContractDecision(ctx context.Context, contract *models.Contract, approved bool) {
	if contract.OwnerID == nil {
		return
	}
	title := "合同审批通过"
	message := fmt.Sprintf("合同 %s 已审批通过", contract.ContractCode)
	notificationType := models.NotificationTypeContractApproved
	if !approved {
		title = "合同审批驳回"
		message = fmt.Sprintf("合同 %s 被驳回", contract.ContractCode)
		if contract.RejectionReason != nil {
			message = fmt.Sprintf("%s: %s", message, *contract.RejectionReason)
		}
		notificationType = models.NotificationTypeContractRejected
	}
	if err := s.Create(ctx, *contract.OwnerID, title, message, notificationType); err != nil {
		logger.Error("failed to create notification", "user_id", *contract.OwnerID, "error", err)
	}
}

// NotifyInvoiceOverdue informs admins of an overdue invoice
func (s *NotificationService) NotifyInvoiceOverdue(ctx context.Context, invoice *models.Invoice) {
	message := fmt.Sprintf("发票 %s 已逾期，应付日期 %s，金额 %s",
		invoice.InvoiceCode, invoice.DueDate.Format("2006-01-02"), invoice.TotalAmount.StringFixed(2))
	s.notifyAdmins(ctx, "发票逾期", message, models.NotificationTypeInvoiceOverdue)
}

// NotifyProjectBlocked informs the project manager the project went blocked
func (s *NotificationService) NotifyProjectBlocked(ctx context.Context, project *models.Project) {
	if project.ManagerID == nil {
		return
	}
	message := fmt.Sprintf("项目 %s (%s) 健康度为受阻", project.ProjectCode, project.Name)
	if err := s.Create(ctx, *project.ManagerID, "项目受阻", message, models.NotificationTypeProjectBlocked); err != nil {
		logger.Error("failed to create notification", "user_id", *project.ManagerID, "error", err)
	}
}

// FindByUser lists a user's notifications
func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

// MarkAsRead marks one notification read, scoped to its owner
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uint) error {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return ErrNotFound
	}
	if notification.UserID != userID {
		return ErrUnauthorized
	}
	if notification.IsRead() {
		return nil
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

// MarkAllAsRead marks every unread notification of a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread returns the number of unread notifications
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

package services

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
)

// UserService manages system accounts
type UserService struct {
	repo     repository.UserRepository
	auditSvc *AuditService
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, auditSvc *AuditService) *UserService {
	return &UserService{repo: repo, auditSvc: auditSvc}
}

// CreateUserInput carries the fields of a new account
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// CreateUser creates an account with a hashed password
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput, actorID uint) (*models.User, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrDuplicate
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:             input.Email,
		EncryptedPassword: hashed,
		FullName:          input.FullName,
		Phone:             input.Phone,
		Role:              input.Role,
		Status:            models.StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionCreate, "user", user.ID,
			fmt.Sprintf("创建用户 %s", user.Email))
	}

	return user, nil
}

// FindByID returns a user by ID
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// List returns a paginated user listing
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}

// ChangePassword verifies the current password and sets a new one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return ErrNotFound
	}

	if !VerifyPassword(currentPassword, user.EncryptedPassword) {
		return ErrInvalidPassword
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.EncryptedPassword = hashed
	return s.repo.Update(ctx, user)
}

// SetRole changes a user's role
func (s *UserService) SetRole(ctx context.Context, id uint, role string, actorID uint) (*models.User, error) {
	switch role {
	case models.RoleAdmin, models.RoleSales, models.RoleProjectManager, models.RoleUser:
	default:
		return nil, newValidationError("无效的角色: %s", role)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "user", user.ID,
			fmt.Sprintf("调整用户 %s 角色为 %s", user.Email, role))
	}

	return user, nil
}

// Suspend deactivates an account
func (s *UserService) Suspend(ctx context.Context, id uint, actorID uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	user.Status = models.StatusSuspended
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(ctx, actorID, models.AuditActionUpdate, "user", user.ID,
			fmt.Sprintf("停用用户 %s", user.Email))
	}

	return user, nil
}

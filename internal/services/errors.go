package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound         = errors.New("记录不存在")
	ErrInvalidPassword  = errors.New("密码错误")
	ErrUnauthorized     = errors.New("没有操作权限")
	ErrInvalidState     = errors.New("非法的状态变更")
	ErrDuplicate        = errors.New("编码已存在")
	ErrAccountSuspended = errors.New("账号已停用")
)

// ValidationError carries a rule violation message meant for the
// caller, like an illegal stage transition.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

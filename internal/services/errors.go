package services

import (
	"errors"
	"fmt"

	"github.com/edupath/learning-service/internal/validator"
)

// Sentinel errors returned by services and mapped to HTTP statuses in the
// handler layer.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrResultNotFound   = errors.New("test result not found")
	ErrGrantNotFound    = errors.New("access grant not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrDuplicateGrant   = errors.New("access already granted")
)

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Errors.Error())
}

// PermissionError signals the caller is not allowed to perform the operation.
type PermissionError struct {
	Message string
}

func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

func (e *PermissionError) Error() string {
	return e.Message
}

// BusinessRuleError signals a domain rule violation that is not a plain
// validation failure.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

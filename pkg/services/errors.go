// Package services holds the workflow use cases behind the HTTP API and the
// worker.
package services

import (
	"errors"
	"fmt"
)

// Validation failures. The web layer answers all of them with 400.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrWorkflowNil       = errors.New("workflow cannot be nil")
	ErrTenantRequired    = errors.New("tenant ID cannot be empty")
	ErrDuplicateStepID   = errors.New("step IDs must be unique")
	ErrInvalidStepConfig = errors.New("invalid step configuration")
)

var validationErrors = []error{
	ErrInvalidRequest,
	ErrWorkflowNil,
	ErrTenantRequired,
	ErrDuplicateStepID,
	ErrInvalidStepConfig,
}

// ServiceError is a rejected request. Code is a stable identifier such as
// "duplicate_step_id", reported to API clients as the problem type.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err was caused by the request content.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// ErrorCode returns the code of the ServiceError in err's chain, or "".
func ErrorCode(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}

	return ""
}

func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Package errors provides standardized error handling for the volunteer engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: malformed input, recoverable by caller correction.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// State errors: a logic/ordering mistake by the caller.
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodePrerequisiteNotMet ErrorCode = "PREREQUISITE_NOT_MET"
	ErrCodeModuleNotFound     ErrorCode = "MODULE_NOT_FOUND"
	ErrCodeVolunteerNotFound  ErrorCode = "VOLUNTEER_NOT_FOUND"
	ErrCodeBreakHoldActive    ErrorCode = "BREAK_HOLD_ACTIVE"

	// Contention errors: a race between selection and assignment. The
	// caller should re-run selection and pick a different volunteer.
	ErrCodeVolunteerUnavailable ErrorCode = "VOLUNTEER_UNAVAILABLE"
	ErrCodeCapacityExceeded     ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodeBurnoutBlocked       ErrorCode = "BURNOUT_BLOCKED"

	// Infrastructure errors: the record store or a window store is
	// unreachable. Propagated as-is; callers apply their own backoff.
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeAuditAppendFailed ErrorCode = "AUDIT_APPEND_FAILED"
)

// Category groups error codes by how callers are expected to react.
type Category string

const (
	CategoryValidation     Category = "VALIDATION"
	CategoryState          Category = "STATE"
	CategoryContention     Category = "CONTENTION"
	CategoryInfrastructure Category = "INFRASTRUCTURE"
)

// StandardError represents a structured engine error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable state error.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Status transition not allowed",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPrerequisiteNotMetError creates a non-retryable state error.
func NewPrerequisiteNotMetError(moduleID string, missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodePrerequisiteNotMet,
		Message:   "Training prerequisites not completed",
		Details:   fmt.Sprintf("moduleId: %s, missing: %v", moduleID, missing),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModuleNotFoundError creates a non-retryable state error.
func NewModuleNotFoundError(moduleID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModuleNotFound,
		Message:   "Training module not found in catalog",
		Details:   fmt.Sprintf("moduleId: %s", moduleID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVolunteerNotFoundError creates a non-retryable state error.
func NewVolunteerNotFoundError(volunteerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVolunteerNotFound,
		Message:   "Volunteer not found",
		Details:   fmt.Sprintf("volunteerId: %s", volunteerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBreakHoldActiveError creates a non-retryable state error raised when
// reactivation is attempted while a mandatory break or follow-up is pending.
func NewBreakHoldActiveError(volunteerID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBreakHoldActive,
		Message:   "Volunteer is on a mandatory break",
		Details:   fmt.Sprintf("volunteerId: %s, %s", volunteerID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVolunteerUnavailableError creates a contention error.
func NewVolunteerUnavailableError(volunteerID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVolunteerUnavailable,
		Message:   "Volunteer no longer available for assignment",
		Details:   fmt.Sprintf("volunteerId: %s, %s", volunteerID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCapacityExceededError creates a contention error.
func NewCapacityExceededError(volunteerID string, load, max int) *StandardError {
	return &StandardError{
		Code:      ErrCodeCapacityExceeded,
		Message:   "Volunteer is at maximum concurrent sessions",
		Details:   fmt.Sprintf("volunteerId: %s, currentLoad: %d, maxConcurrent: %d", volunteerID, load, max),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBurnoutBlockedError creates a contention error.
func NewBurnoutBlockedError(volunteerID string, score, threshold float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeBurnoutBlocked,
		Message:   "Volunteer blocked by burnout threshold",
		Details:   fmt.Sprintf("volunteerId: %s, burnoutScore: %.2f, threshold: %.2f", volunteerID, score, threshold),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable infrastructure error.
func NewStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   fmt.Sprintf("Record store '%s' unreachable", store),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditAppendFailedError creates a retryable infrastructure error. Audit
// failures are surfaced as warnings and never roll back the operation.
func NewAuditAppendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditAppendFailed,
		Message:   "Audit trail append failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) Category {
	switch code {
	case ErrCodeValidationFailed:
		return CategoryValidation
	case ErrCodeInvalidTransition,
		ErrCodePrerequisiteNotMet,
		ErrCodeModuleNotFound,
		ErrCodeVolunteerNotFound,
		ErrCodeBreakHoldActive:
		return CategoryState
	case ErrCodeVolunteerUnavailable,
		ErrCodeCapacityExceeded,
		ErrCodeBurnoutBlocked:
		return CategoryContention
	default:
		return CategoryInfrastructure
	}
}

// CodeOf extracts the engine error code from err, or "" if err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsContention reports whether the caller should re-run selection and retry
// with a different volunteer.
func IsContention(err error) bool {
	return GetErrorCategory(CodeOf(err)) == CategoryContention && CodeOf(err) != ""
}

// IsRetryable reports whether the same call may be retried as-is.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

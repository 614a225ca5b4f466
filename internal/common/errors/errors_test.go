package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryMapping(t *testing.T) {
	assert.Equal(t, CategoryValidation, GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, CategoryState, GetErrorCategory(ErrCodeInvalidTransition))
	assert.Equal(t, CategoryState, GetErrorCategory(ErrCodeBreakHoldActive))
	assert.Equal(t, CategoryContention, GetErrorCategory(ErrCodeCapacityExceeded))
	assert.Equal(t, CategoryContention, GetErrorCategory(ErrCodeBurnoutBlocked))
	assert.Equal(t, CategoryInfrastructure, GetErrorCategory(ErrCodeStoreUnavailable))
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := NewCapacityExceededError("v1", 3, 3)
	wrapped := fmt.Errorf("assignment failed: %w", base)

	assert.Equal(t, ErrCodeCapacityExceeded, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestContentionAndRetryability(t *testing.T) {
	assert.True(t, IsContention(NewVolunteerUnavailableError("v1", "suspended")))
	assert.True(t, IsContention(NewBurnoutBlockedError("v1", 0.8, 0.7)))
	assert.False(t, IsContention(NewInvalidTransitionError("pending", "active")))
	assert.False(t, IsContention(fmt.Errorf("plain")))

	assert.True(t, IsRetryable(NewStoreUnavailableError("volunteers", fmt.Errorf("down"))))
	assert.True(t, IsRetryable(NewAuditAppendFailedError(fmt.Errorf("index closed"))))
	assert.False(t, IsRetryable(NewValidationFailedError("bad input")))
}

func TestErrorStringCarriesCode(t *testing.T) {
	err := NewPrerequisiteNotMetError("advanced-intervention", []string{"risk-assessment"})
	assert.Contains(t, err.Error(), "PREREQUISITE_NOT_MET")
	assert.Contains(t, err.Details, "risk-assessment")
}

// backend/services/works-service/internal/utils/errors.go

package utils

import (
	"errors"

	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

/*
Sentinel errors for works-service domain logic.
The controller can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	// NotFound
	ErrWorkNotFound = errors.New("work_not_found")

	// Conflict
	ErrAlreadyAssigned       = errors.New("already_assigned")
	ErrEmployeeAlreadyActive = errors.New("employee_already_active")
	ErrInvalidState          = errors.New("invalid_state")
	ErrCodeMismatch          = errors.New("code_mismatch")
	ErrNoCodeIssued          = errors.New("no_code_issued")

	// Forbidden
	ErrNotAssignedToEmployee = errors.New("not_assigned_to_employee")
	ErrNotWorkEmployer       = errors.New("not_work_employer")
	ErrSubjectMismatch       = errors.New("subject_mismatch")

	// Validation
	ErrInvalidCompletionCode = errors.New("invalid_completion_code")
	ErrInvalidManualCode     = errors.New("invalid_manual_code")
	ErrInvalidPayload        = errors.New("invalid_payload")

	// Store invariant broken; never a caller mistake.
	ErrMultipleActiveWorks = errors.New("multiple_active_works")

	ErrManualCodeExhausted = errors.New("manual_code_exhausted")
)

/*
RowVersionConflictError is returned when the optimistic-lock retries are
exhausted. It includes the latest Work so the controller can return it
to the client if desired.
*/
type RowVersionConflictError struct {
	Current *models.Work
}

func (e *RowVersionConflictError) Error() string {
	return "row_version_conflict"
}

func NewRowVersionConflictError(current *models.Work) error {
	return &RowVersionConflictError{Current: current}
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/shiftly/mono-repo/backend/services/works-service/internal/constants"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// serviceErrors maps the service taxonomy onto HTTP. Order matters only for
// errors that wrap one another, which none of these do.
var serviceErrors = []errorMapping{
	// NotFound
	{internal_utils.ErrWorkNotFound, http.StatusNotFound, internal_utils.ErrCodeWorkNotFound, "Work not found"},

	// Conflict
	{internal_utils.ErrAlreadyAssigned, http.StatusConflict, internal_utils.ErrCodeAlreadyAssigned, "Work is already assigned to another employee"},
	{internal_utils.ErrEmployeeAlreadyActive, http.StatusConflict, internal_utils.ErrCodeEmployeeAlreadyActive, "Employee already has an active work"},
	{internal_utils.ErrInvalidState, http.StatusConflict, internal_utils.ErrCodeInvalidState, "Work is not in a state that allows this action"},
	{internal_utils.ErrCodeMismatch, http.StatusConflict, internal_utils.ErrCodeCodeMismatch, "Completion code does not match"},
	{internal_utils.ErrNoCodeIssued, http.StatusConflict, internal_utils.ErrCodeNoCodeIssued, "No completion code has been issued for this work"},

	// Forbidden
	{internal_utils.ErrNotAssignedToEmployee, http.StatusForbidden, internal_utils.ErrCodeNotAssignedToEmployee, "Work is not assigned to this employee"},
	{internal_utils.ErrNotWorkEmployer, http.StatusForbidden, internal_utils.ErrCodeNotWorkEmployer, "Only the work's employer may do this"},
	{internal_utils.ErrSubjectMismatch, http.StatusForbidden, internal_utils.ErrCodeSubjectMismatch, "Token subject does not match the request"},

	// Validation
	{internal_utils.ErrInvalidCompletionCode, http.StatusBadRequest, internal_utils.ErrCodeInvalidCompletionCode, "Completion code must be exactly 6 digits"},
	{internal_utils.ErrInvalidManualCode, http.StatusBadRequest, internal_utils.ErrCodeInvalidManualCode, "Manual code must be 8 letters or digits"},
	{internal_utils.ErrInvalidPayload, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload"},

	{utils.ErrRateLimitExceeded, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many failed attempts, try again later"},
	{internal_utils.ErrMultipleActiveWorks, http.StatusInternalServerError, internal_utils.ErrCodeMultipleActiveWorks, "Employee has more than one active work"},
}

// respondServiceError writes the response for an error returned by
// WorkService; anything unrecognised becomes a 500.
func respondServiceError(w http.ResponseWriter, err error, fallbackMsg string) {
	var rvErr *internal_utils.RowVersionConflictError
	if errors.As(err, &rvErr) {
		utils.RespondErrorWithCode(
			w,
			http.StatusConflict,
			utils.ErrCodeRowVersionConflict,
			constants.ErrMsgRowVersionConflictRefresh,
			rvErr.Current,
			err,
		)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg := m.message
			if m.status == http.StatusBadRequest && err != m.err {
				// wrapped validation errors name the offending field
				msg = err.Error()
			}
			utils.RespondErrorWithCode(w, m.status, m.code, msg, nil, err)
			return
		}
	}

	utils.Logger.WithError(err).Error(fallbackMsg)
	utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, fallbackMsg, nil, err)
}

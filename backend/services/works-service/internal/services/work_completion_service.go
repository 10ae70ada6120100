package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/metrics"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

/*
IssueCompletionCode attaches a fresh 6-digit code to an active or paused
work and returns it. Any earlier code is overwritten, so only the latest one
validates. Status is left unchanged.

requesterID, when non-empty, must be the work's employer.
*/
func (s *WorkService) IssueCompletionCode(ctx context.Context, workID uuid.UUID, requesterID string) (string, error) {
	var code string
	_, err := s.update(ctx, workID, func(w *models.Work) error {
		if requesterID != "" && w.EmployerID != requesterID {
			return internal_utils.ErrNotWorkEmployer
		}
		if !w.Status.AcceptsCompletionCode() {
			return fmt.Errorf("%w: cannot issue a completion code for a %s work", internal_utils.ErrInvalidState, w.Status)
		}
		code = s.newCompletionCode()
		w.CompletionCode = &code
		return nil
	})
	observe("issue_code", err)
	if err != nil {
		return "", err
	}

	metrics.CompletionCodesIssued.Inc()
	utils.Logger.WithField("work_id", workID).Info("Completion code issued")
	return code, nil
}

/*
Complete closes workID when employeeID is its assignee and code matches the
latest issued completion code.

The format check runs first (ErrInvalidCompletionCode). Then, against the
stored work: ErrWorkNotFound, ErrNotAssignedToEmployee, ErrInvalidState,
ErrNoCodeIssued, ErrCodeMismatch. A mismatch leaves the work untouched.

The write is conditioned on the row version read during verification; if a
new code is issued or another completion lands in between, the loop re-reads
and verifies again against the new state.
*/
func (s *WorkService) Complete(ctx context.Context, workID uuid.UUID, employeeID, code string) (*models.Work, error) {
	w, err := s.complete(ctx, workID, strings.TrimSpace(employeeID), code)
	observe(models.TransitionComplete, err)
	return w, err
}

func (s *WorkService) complete(ctx context.Context, workID uuid.UUID, employeeID, code string) (*models.Work, error) {
	if err := internal_utils.ValidateCompletionCode(code); err != nil {
		return nil, err
	}
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employeeId is required", internal_utils.ErrInvalidPayload)
	}

	attempt, ok := s.limiter.Acquire(workID.String() + ":" + employeeID)
	if !ok {
		return nil, utils.ErrRateLimitExceeded
	}

	updated, err := s.update(ctx, workID, func(w *models.Work) error {
		if !w.IsAssignedTo(employeeID) {
			return internal_utils.ErrNotAssignedToEmployee
		}
		if !w.Status.AcceptsCompletionCode() {
			return fmt.Errorf("%w: cannot complete a %s work", internal_utils.ErrInvalidState, w.Status)
		}
		if w.CompletionCode == nil {
			return internal_utils.ErrNoCodeIssued
		}
		if subtle.ConstantTimeCompare([]byte(*w.CompletionCode), []byte(code)) != 1 {
			return internal_utils.ErrCodeMismatch
		}

		if err := transition(w, models.TransitionComplete); err != nil {
			return err
		}
		now := s.now().UTC()
		w.EndTime = &now
		w.CompletionCode = nil
		return nil
	})

	fields := logrus.Fields{"work_id": workID, "employee_id": employeeID}
	if err != nil {
		if errors.Is(err, internal_utils.ErrCodeMismatch) {
			attempt.Failed()
			utils.Logger.WithFields(fields).Warn("Completion code mismatch")
		} else {
			attempt.Cancel()
		}
		return nil, err
	}

	attempt.Succeeded()
	utils.Logger.WithFields(fields).Info("Work completed")
	return updated, nil
}

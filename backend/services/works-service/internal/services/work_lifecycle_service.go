package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// errAlreadyHeld aborts the CAS loop when the employee re-assigns a work
// they already hold; Assign turns it into a plain success.
var errAlreadyHeld = errors.New("already_held")

/*
Assign gives workID to employeeID.

  - ErrWorkNotFound if the work does not exist
  - ErrAlreadyAssigned if another employee holds it
  - ErrEmployeeAlreadyActive if the employee holds a different active work
  - ErrInvalidState if the work is not published

Re-assigning a work the employee already holds returns it unchanged. When
two employees race for the same work, the loser's retry re-reads the
winner's write and fails with ErrAlreadyAssigned.
*/
func (s *WorkService) Assign(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	w, err := s.assign(ctx, workID, strings.TrimSpace(employeeID))
	observe(models.TransitionAssign, err)
	return w, err
}

func (s *WorkService) assign(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employeeId is required", internal_utils.ErrInvalidPayload)
	}

	updated, err := s.update(ctx, workID, func(w *models.Work) error {
		if w.EmployeeID != nil {
			if *w.EmployeeID != employeeID {
				return internal_utils.ErrAlreadyAssigned
			}
			if w.Status.IsActive() {
				return errAlreadyHeld
			}
		}

		if w.Status != models.WorkStatusPublished {
			return fmt.Errorf("%w: cannot assign a %s work", internal_utils.ErrInvalidState, w.Status)
		}

		other, err := s.FindActiveForEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if other != nil && other.ID != w.ID {
			return internal_utils.ErrEmployeeAlreadyActive
		}

		if err := transition(w, models.TransitionAssign); err != nil {
			return err
		}
		w.EmployeeID = &employeeID
		if w.StartTime == nil {
			now := s.now().UTC()
			w.StartTime = &now
		}
		return nil
	})
	if errors.Is(err, errAlreadyHeld) {
		return s.FindByID(ctx, workID)
	}
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"work_id":     workID,
		"employee_id": employeeID,
	}).Info("Work assigned")
	return updated, nil
}

// Start moves an assigned work to active.
func (s *WorkService) Start(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	return s.employeeTransition(ctx, workID, employeeID, models.TransitionStart, nil)
}

// Pause moves an active work to paused. An issued completion code stays valid.
func (s *WorkService) Pause(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	return s.employeeTransition(ctx, workID, employeeID, models.TransitionPause, nil)
}

func (s *WorkService) Resume(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	return s.employeeTransition(ctx, workID, employeeID, models.TransitionResume, nil)
}

// Release hands an assigned work back to the pool, freeing the employee's
// active slot. It is the only way to clear employeeId.
func (s *WorkService) Release(ctx context.Context, workID uuid.UUID, employeeID string) (*models.Work, error) {
	return s.employeeTransition(ctx, workID, employeeID, models.TransitionRelease, func(w *models.Work) {
		w.EmployeeID = nil
		w.CompletionCode = nil
	})
}

func (s *WorkService) employeeTransition(
	ctx context.Context,
	workID uuid.UUID,
	employeeID string,
	name string,
	after func(*models.Work),
) (*models.Work, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		err := fmt.Errorf("%w: employeeId is required", internal_utils.ErrInvalidPayload)
		observe(name, err)
		return nil, err
	}

	updated, err := s.update(ctx, workID, func(w *models.Work) error {
		if !w.IsAssignedTo(employeeID) {
			return internal_utils.ErrNotAssignedToEmployee
		}
		if err := transition(w, name); err != nil {
			return err
		}
		if after != nil {
			after(w)
		}
		return nil
	})
	observe(name, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"work_id":     workID,
		"employee_id": employeeID,
		"status":      updated.Status,
	}).Infof("Work %s", name)
	return updated, nil
}

// Publish makes a draft visible for assignment.
func (s *WorkService) Publish(ctx context.Context, workID uuid.UUID, employerID string) (*models.Work, error) {
	return s.employerTransition(ctx, workID, employerID, models.TransitionPublish)
}

// Reject withdraws a draft or published work for good.
func (s *WorkService) Reject(ctx context.Context, workID uuid.UUID, employerID string) (*models.Work, error) {
	return s.employerTransition(ctx, workID, employerID, models.TransitionReject)
}

func (s *WorkService) employerTransition(
	ctx context.Context,
	workID uuid.UUID,
	employerID string,
	name string,
) (*models.Work, error) {
	updated, err := s.update(ctx, workID, func(w *models.Work) error {
		if w.EmployerID != strings.TrimSpace(employerID) {
			return internal_utils.ErrNotWorkEmployer
		}
		return transition(w, name)
	})
	observe(name, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"work_id":     workID,
		"employer_id": employerID,
		"status":      updated.Status,
	}).Infof("Work %s", name)
	return updated, nil
}

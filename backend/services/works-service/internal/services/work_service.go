package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/metrics"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

/*
WorkService owns the work lifecycle: registry lookups, assignment,
completion-code issuance and verification, and the employer operations.
Every mutation goes through the repository's row-version CAS loop, so the
business checks inside each mutate func are re-run against fresh state
whenever a concurrent writer wins.
*/
type WorkService struct {
	repo    repositories.WorkRepository
	limiter *AttemptLimiter

	newCompletionCode func() string
	newManualCode     func() string
	now               func() time.Time
}

type Option func(*WorkService)

// WithAttemptLimiter throttles failed completion attempts. A nil limiter
// disables throttling.
func WithAttemptLimiter(l *AttemptLimiter) Option {
	return func(s *WorkService) { s.limiter = l }
}

func WithCompletionCodeGenerator(fn func() string) Option {
	return func(s *WorkService) { s.newCompletionCode = fn }
}

func WithManualCodeGenerator(fn func() string) Option {
	return func(s *WorkService) { s.newManualCode = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *WorkService) { s.now = fn }
}

func NewWorkService(repo repositories.WorkRepository, opts ...Option) *WorkService {
	s := &WorkService{
		repo: repo,
		newCompletionCode: func() string {
			return utils.RandomNumericString(models.CompletionCodeLength)
		},
		newManualCode: func() string {
			return utils.RandomAlphanumericString(models.ManualCodeLength)
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ----------------------------------------------------------------
// Registry (read-only)
// ----------------------------------------------------------------

func (s *WorkService) FindByID(ctx context.Context, id uuid.UUID) (*models.Work, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading work %s: %w", id, err)
	}
	if w == nil {
		return nil, internal_utils.ErrWorkNotFound
	}
	return w, nil
}

// FindByManualCode accepts the code in any case, surrounded by whitespace.
func (s *WorkService) FindByManualCode(ctx context.Context, code string) (*models.Work, error) {
	normalized, err := internal_utils.NormalizeManualCode(code)
	if err != nil {
		return nil, err
	}
	w, err := s.repo.GetByManualCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("loading work by manual code: %w", err)
	}
	if w == nil {
		return nil, internal_utils.ErrWorkNotFound
	}
	return w, nil
}

/*
FindActiveForEmployee returns the single work the employee holds in
assigned/active/paused, or (nil, nil). More than one is a broken store
invariant and is reported as ErrMultipleActiveWorks instead of picking one.
*/
func (s *WorkService) FindActiveForEmployee(ctx context.Context, employeeID string) (*models.Work, error) {
	works, err := s.repo.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("listing active works: %w", err)
	}
	switch len(works) {
	case 0:
		return nil, nil
	case 1:
		return works[0], nil
	default:
		ids := make([]string, 0, len(works))
		for _, w := range works {
			ids = append(ids, w.ID.String())
		}
		return nil, fmt.Errorf("%w: employee %s holds %v", internal_utils.ErrMultipleActiveWorks, employeeID, ids)
	}
}

// Resolve looks up the work a QR payload or typed manual code refers to.
func (s *WorkService) Resolve(ctx context.Context, payload string) (*models.Work, error) {
	ref, err := internal_utils.ParseWorkPayload(payload)
	if err != nil {
		return nil, err
	}
	if ref.ID != nil {
		return s.FindByID(ctx, *ref.ID)
	}
	return s.FindByManualCode(ctx, ref.ManualCode)
}

func (s *WorkService) ListByEmployer(ctx context.Context, employerID string) ([]*models.Work, error) {
	return s.repo.ListByEmployer(ctx, employerID)
}

func (s *WorkService) ListByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

// ----------------------------------------------------------------
// shared helpers
// ----------------------------------------------------------------

// update runs mutate under the CAS loop and translates store errors into
// the service's taxonomy.
func (s *WorkService) update(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error) {
	w, err := s.repo.UpdateWithRetry(ctx, id, mutate)
	if err == nil {
		return w, nil
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, internal_utils.ErrWorkNotFound
	case errors.Is(err, repositories.ErrActiveSlotTaken):
		return nil, internal_utils.ErrEmployeeAlreadyActive
	case errors.Is(err, utils.ErrRowVersionConflict):
		metrics.CASRetriesExhausted.Inc()
		current, _ := s.repo.GetByID(ctx, id)
		return nil, internal_utils.NewRowVersionConflictError(current)
	}
	return nil, err
}

// transition moves w along the named edge of the status machine.
func transition(w *models.Work, name string) error {
	next, ok := models.NextStatus(w.Status, name)
	if !ok {
		return fmt.Errorf("%w: cannot %s a %s work", internal_utils.ErrInvalidState, name, w.Status)
	}
	w.Status = next
	return nil
}

var outcomeErrors = []error{
	internal_utils.ErrWorkNotFound,
	internal_utils.ErrAlreadyAssigned,
	internal_utils.ErrEmployeeAlreadyActive,
	internal_utils.ErrInvalidState,
	internal_utils.ErrCodeMismatch,
	internal_utils.ErrNoCodeIssued,
	internal_utils.ErrNotAssignedToEmployee,
	internal_utils.ErrNotWorkEmployer,
	internal_utils.ErrInvalidCompletionCode,
	internal_utils.ErrMultipleActiveWorks,
	utils.ErrRateLimitExceeded,
}

// outcome is the metrics label for err: "ok", a known error code, or "error".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var rvErr *internal_utils.RowVersionConflictError
	if errors.As(err, &rvErr) {
		return rvErr.Error()
	}
	for _, known := range outcomeErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "error"
}

func observe(transitionName string, err error) {
	metrics.Transitions.WithLabelValues(transitionName, outcome(err)).Inc()
}

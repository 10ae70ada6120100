package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedWork returns a work assigned to E1 and started.
func startedWork(t *testing.T, svc *WorkService) *models.Work {
	t.Helper()
	ctx := context.Background()
	w, err := svc.CreateWork(ctx, newCreateRequest())
	require.NoError(t, err)
	_, err = svc.Assign(ctx, w.ID, "E1")
	require.NoError(t, err)
	w, err = svc.Start(ctx, w.ID, "E1")
	require.NoError(t, err)
	return w
}

func TestScenario_ManualCodeAssignIssueComplete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
	w1 := seedWork(t, repo, "ABCD1234", models.WorkStatusPublished, "")

	found, err := svc.Resolve(ctx, "ABCD1234")
	require.NoError(t, err)
	require.Equal(t, w1.ID, found.ID)

	assigned, err := svc.Assign(ctx, found.ID, "E1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusAssigned, assigned.Status)

	// Codes are only issued once the employee is on the job.
	_, err = svc.IssueCompletionCode(ctx, w1.ID, "")
	require.ErrorIs(t, err, internal_utils.ErrInvalidState)

	_, err = svc.Start(ctx, w1.ID, "E1")
	require.NoError(t, err)

	code, err := svc.IssueCompletionCode(ctx, w1.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "482913", code)

	afterIssue, err := svc.FindByID(ctx, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusActive, afterIssue.Status)
	require.NotNil(t, afterIssue.CompletionCode)
	assert.Equal(t, "482913", *afterIssue.CompletionCode)

	done, err := svc.Complete(ctx, w1.ID, "E1", "482913")
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, done.Status)
	assert.Nil(t, done.CompletionCode)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, fixedNow, *done.EndTime)

	active, err := svc.FindActiveForEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestScenario_SecondEmployeeCannotTakeAssignedWork(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	w1 := seedWork(t, repo, "ABCD1234", models.WorkStatusPublished, "")

	_, err := svc.Assign(ctx, w1.ID, "E1")
	require.NoError(t, err)

	_, err = svc.Assign(ctx, w1.ID, "E2")
	assert.ErrorIs(t, err, internal_utils.ErrAlreadyAssigned)
}

func TestScenario_WrongCodeLeavesWorkUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
	w1 := seedWork(t, repo, "ABCD1234", models.WorkStatusActive, "E1")
	_, err := svc.IssueCompletionCode(ctx, w1.ID, "")
	require.NoError(t, err)
	before, _ := svc.FindByID(ctx, w1.ID)

	_, err = svc.Complete(ctx, w1.ID, "E1", "000000")
	require.ErrorIs(t, err, internal_utils.ErrCodeMismatch)

	after, _ := svc.FindByID(ctx, w1.ID)
	assert.Equal(t, models.WorkStatusActive, after.Status)
	assert.Equal(t, "482913", *after.CompletionCode)
	assert.Equal(t, before.RowVersion, after.RowVersion)
}

func TestIssueCompletionCode(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid states", func(t *testing.T) {
		svc, repo := newTestService(t)
		for i, st := range []models.WorkStatusType{
			models.WorkStatusDraft,
			models.WorkStatusPublished,
			models.WorkStatusAssigned,
			models.WorkStatusCompleted,
			models.WorkStatusRejected,
		} {
			emp := ""
			if st == models.WorkStatusAssigned {
				emp = "E1"
			}
			w := seedWork(t, repo, fmt.Sprintf("ISSU%04d", i), st, emp)
			_, err := svc.IssueCompletionCode(ctx, w.ID, "")
			assert.ErrorIs(t, err, internal_utils.ErrInvalidState, st)
		}
	})

	t.Run("paused works accept codes", func(t *testing.T) {
		svc, repo := newTestService(t)
		w := seedWork(t, repo, "PAUS0001", models.WorkStatusPaused, "E1")
		code, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)

		got, _ := svc.FindByID(ctx, w.ID)
		assert.Equal(t, models.WorkStatusPaused, got.Status)
	})

	t.Run("unknown work", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.IssueCompletionCode(ctx, uuid.New(), "")
		assert.ErrorIs(t, err, internal_utils.ErrWorkNotFound)
	})

	t.Run("only the employer may request", func(t *testing.T) {
		svc, repo := newTestService(t)
		w := seedWork(t, repo, "EMPL0001", models.WorkStatusActive, "E1")
		_, err := svc.IssueCompletionCode(ctx, w.ID, "E1")
		assert.ErrorIs(t, err, internal_utils.ErrNotWorkEmployer)
		_, err = svc.IssueCompletionCode(ctx, w.ID, "R1")
		assert.NoError(t, err)
	})
}

func TestComplete_SupersededCodeFails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("111111", "222222")))
	w := startedWork(t, svc)

	first, err := svc.IssueCompletionCode(ctx, w.ID, "")
	require.NoError(t, err)
	second, err := svc.IssueCompletionCode(ctx, w.ID, "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.Complete(ctx, w.ID, "E1", first)
	require.ErrorIs(t, err, internal_utils.ErrCodeMismatch)

	done, err := svc.Complete(ctx, w.ID, "E1", second)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, done.Status)
}

func TestComplete_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("format is checked before lookup", func(t *testing.T) {
		svc, _ := newTestService(t)
		for _, code := range []string{"", "12345", "1234567", "12a456", "12 456"} {
			_, err := svc.Complete(ctx, uuid.New(), "E1", code)
			assert.ErrorIs(t, err, internal_utils.ErrInvalidCompletionCode, code)
		}
	})

	t.Run("unknown work", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Complete(ctx, uuid.New(), "E1", "123456")
		assert.ErrorIs(t, err, internal_utils.ErrWorkNotFound)
	})

	t.Run("someone else's work", func(t *testing.T) {
		svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)

		_, err = svc.Complete(ctx, w.ID, "E2", "482913")
		assert.ErrorIs(t, err, internal_utils.ErrNotAssignedToEmployee)
	})

	t.Run("no code issued", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := startedWork(t, svc)
		_, err := svc.Complete(ctx, w.ID, "E1", "482913")
		assert.ErrorIs(t, err, internal_utils.ErrNoCodeIssued)
	})

	t.Run("already completed", func(t *testing.T) {
		svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)
		_, err = svc.Complete(ctx, w.ID, "E1", "482913")
		require.NoError(t, err)

		_, err = svc.Complete(ctx, w.ID, "E1", "482913")
		assert.ErrorIs(t, err, internal_utils.ErrInvalidState)
	})
}

func TestComplete_FromPaused(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("654321")))
	w := startedWork(t, svc)
	code, err := svc.IssueCompletionCode(ctx, w.ID, "")
	require.NoError(t, err)
	_, err = svc.Pause(ctx, w.ID, "E1")
	require.NoError(t, err)

	done, err := svc.Complete(ctx, w.ID, "E1", code)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, done.Status)
}

func TestComplete_ConcurrentSubmissionsCompleteOnce(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 25; round++ {
		svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)

		const submitters = 6
		errs := make([]error, submitters)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < submitters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = svc.Complete(ctx, w.ID, "E1", "482913")
			}(i)
		}
		close(start)
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, internal_utils.ErrInvalidState)
		}
		require.Equal(t, 1, wins)
	}
}

func TestComplete_ReissueRacingCompletion(t *testing.T) {
	ctx := context.Background()

	// Whatever the interleaving, the old code either completes the work
	// before the new code lands or is rejected afterwards.
	for round := 0; round < 25; round++ {
		svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("111111", "222222")))
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)

		var completeErr, issueErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, completeErr = svc.Complete(ctx, w.ID, "E1", "111111")
		}()
		go func() {
			defer wg.Done()
			_, issueErr = svc.IssueCompletionCode(ctx, w.ID, "")
		}()
		wg.Wait()

		got, err := svc.FindByID(ctx, w.ID)
		require.NoError(t, err)
		if completeErr == nil {
			assert.Equal(t, models.WorkStatusCompleted, got.Status)
			assert.ErrorIs(t, issueErr, internal_utils.ErrInvalidState)
			assert.Nil(t, got.CompletionCode)
		} else {
			require.ErrorIs(t, completeErr, internal_utils.ErrCodeMismatch)
			require.NoError(t, issueErr)
			assert.Equal(t, models.WorkStatusActive, got.Status)
			assert.Equal(t, "222222", *got.CompletionCode)
		}
	}
}

func TestComplete_AttemptThrottle(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		svc, _ := newTestService(t, WithCompletionCodeGenerator(fixedCodes("482913")))
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			_, err := svc.Complete(ctx, w.ID, "E1", "000000")
			require.ErrorIs(t, err, internal_utils.ErrCodeMismatch)
		}
		_, err = svc.Complete(ctx, w.ID, "E1", "482913")
		require.NoError(t, err)
	})

	t.Run("blocks after the configured failures", func(t *testing.T) {
		svc, _ := newTestService(t,
			WithCompletionCodeGenerator(fixedCodes("482913")),
			WithAttemptLimiter(NewAttemptLimiter(2, time.Hour)),
		)
		w := startedWork(t, svc)
		_, err := svc.IssueCompletionCode(ctx, w.ID, "")
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err := svc.Complete(ctx, w.ID, "E1", "000000")
			require.ErrorIs(t, err, internal_utils.ErrCodeMismatch)
		}
		_, err = svc.Complete(ctx, w.ID, "E1", "482913")
		require.ErrorIs(t, err, utils.ErrRateLimitExceeded)

		got, _ := svc.FindByID(ctx, w.ID)
		assert.Equal(t, models.WorkStatusActive, got.Status)
	})
}

// slowRepo widens the window between reading a work and writing it back.
type slowRepo struct {
	repositories.WorkRepository
	delay time.Duration
}

func (r *slowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error) {
	time.Sleep(r.delay)
	return r.WorkRepository.GetByID(ctx, id)
}

func (r *slowRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error) {
	time.Sleep(r.delay)
	return r.WorkRepository.UpdateWithRetry(ctx, id, mutate)
}

func TestComplete_AttemptThrottleHoldsUnderConcurrentGuesses(t *testing.T) {
	ctx := context.Background()
	repo := &slowRepo{WorkRepository: repositories.NewMemoryWorkRepository(), delay: 5 * time.Millisecond}
	svc := NewWorkService(repo,
		WithClock(func() time.Time { return fixedNow }),
		WithCompletionCodeGenerator(fixedCodes("482913")),
		WithAttemptLimiter(NewAttemptLimiter(3, time.Hour)),
	)
	w := startedWork(t, svc)
	_, err := svc.IssueCompletionCode(ctx, w.ID, "")
	require.NoError(t, err)

	const guesses = 200
	var (
		mu                    sync.Mutex
		mismatched, throttled int
		wg                    sync.WaitGroup
	)
	start := make(chan struct{})
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Complete(ctx, w.ID, "E1", "000000")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, internal_utils.ErrCodeMismatch):
				mismatched++
			case errors.Is(err, utils.ErrRateLimitExceeded):
				throttled++
			default:
				t.Errorf("unexpected result: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 3, mismatched)
	assert.Equal(t, guesses-3, throttled)

	// the budget is spent, so even the right code is refused for E1
	_, err = svc.Complete(ctx, w.ID, "E1", "482913")
	require.ErrorIs(t, err, utils.ErrRateLimitExceeded)
}

func TestComplete_NonMismatchErrorsKeepAttempts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t,
		WithCompletionCodeGenerator(fixedCodes("482913")),
		WithAttemptLimiter(NewAttemptLimiter(1, time.Hour)),
	)
	w := startedWork(t, svc)

	for i := 0; i < 5; i++ {
		_, err := svc.Complete(ctx, w.ID, "E1", "482913")
		require.ErrorIs(t, err, internal_utils.ErrNoCodeIssued)
	}
	_, err := svc.Complete(ctx, uuid.New(), "E1", "482913")
	require.ErrorIs(t, err, internal_utils.ErrWorkNotFound)

	_, err = svc.IssueCompletionCode(ctx, w.ID, "")
	require.NoError(t, err)
	done, err := svc.Complete(ctx, w.ID, "E1", "482913")
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, done.Status)
}

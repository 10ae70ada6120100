package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache runs one janitor per cache until it is garbage collected.
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

var fixedNow = time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*WorkService, repositories.WorkRepository) {
	t.Helper()
	repo := repositories.NewMemoryWorkRepository()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewWorkService(repo, opts...), repo
}

// seedWork stores a work directly, bypassing the lifecycle checks.
func seedWork(t *testing.T, repo repositories.WorkRepository, code string, status models.WorkStatusType, employeeID string) *models.Work {
	t.Helper()
	w := &models.Work{
		ID:           uuid.New(),
		Title:        "Warehouse shift",
		EmployerName: "Acme Logistics",
		EmployerID:   "R1",
		Wage:         18.5,
		PaymentType:  models.PaymentHourly,
		Status:       status,
		Location:     "Dock 4",
		Skills:       []string{"forklift"},
		ManualCode:   code,
		CreatedAt:    fixedNow,
	}
	if employeeID != "" {
		w.EmployeeID = utils.Ptr(employeeID)
	}
	require.NoError(t, repo.Create(context.Background(), w))
	return w
}

func fixedCodes(codes ...string) func() string {
	i := 0
	return func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}

// corruptRepo reports states the real stores refuse to hold.
type corruptRepo struct {
	repositories.WorkRepository
	active     []*models.Work
	violations map[string]int
	updateErr  error
}

func (r *corruptRepo) ListActiveByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	if r.active != nil {
		return r.active, nil
	}
	return r.WorkRepository.ListActiveByEmployee(ctx, employeeID)
}

func (r *corruptRepo) ListEmployeesWithMultipleActive(ctx context.Context) (map[string]int, error) {
	if r.violations != nil {
		return r.violations, nil
	}
	return r.WorkRepository.ListEmployeesWithMultipleActive(ctx)
}

func (r *corruptRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	return r.WorkRepository.UpdateWithRetry(ctx, id, mutate)
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	w := seedWork(t, repo, "ABCD1234", models.WorkStatusPublished, "")

	got, err := svc.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Title, got.Title)

	_, err = svc.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, internal_utils.ErrWorkNotFound)
}

func TestFindByManualCode(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	w := seedWork(t, repo, "ABCD1234", models.WorkStatusPublished, "")

	got, err := svc.FindByManualCode(ctx, " abcd1234 ")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	_, err = svc.FindByManualCode(ctx, "ZZZZ9999")
	assert.ErrorIs(t, err, internal_utils.ErrWorkNotFound)

	_, err = svc.FindByManualCode(ctx, "ABC")
	assert.ErrorIs(t, err, internal_utils.ErrInvalidManualCode)
}

func TestResolve_AllPayloadShapesFindTheSameWork(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	w := seedWork(t, repo, "ABCD1234", models.WorkStatusPublished, "")

	for _, payload := range []string{
		w.ID.String(),
		`{"workId": "` + w.ID.String() + `"}`,
		"ABCD1234",
	} {
		got, err := svc.Resolve(ctx, payload)
		require.NoError(t, err, payload)
		assert.Equal(t, w.ID, got.ID, payload)
	}

	_, err := svc.Resolve(ctx, `{"workId":"nope"}`)
	assert.ErrorIs(t, err, internal_utils.ErrInvalidPayload)

	_, err = svc.Resolve(ctx, uuid.NewString())
	assert.ErrorIs(t, err, internal_utils.ErrWorkNotFound)
}

func TestFindActiveForEmployee(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	got, err := svc.FindActiveForEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Nil(t, got)

	seedWork(t, repo, "DONE0001", models.WorkStatusCompleted, "E1")
	w := seedWork(t, repo, "ACTV0001", models.WorkStatusPaused, "E1")

	got, err = svc.FindActiveForEmployee(ctx, "E1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w.ID, got.ID)
}

func TestFindActiveForEmployee_MultipleIsAnError(t *testing.T) {
	mem := repositories.NewMemoryWorkRepository()
	repo := &corruptRepo{
		WorkRepository: mem,
		active:         []*models.Work{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	svc := NewWorkService(repo)

	got, err := svc.FindActiveForEmployee(context.Background(), "E1")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, internal_utils.ErrMultipleActiveWorks)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedWork(t, repo, "LIST0001", models.WorkStatusCompleted, "E1")
	seedWork(t, repo, "LIST0002", models.WorkStatusPublished, "")

	byEmployer, err := svc.ListByEmployer(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, byEmployer, 2)

	byEmployee, err := svc.ListByEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Len(t, byEmployee, 1)

	none, err := svc.ListByEmployer(ctx, "R2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate_ContentionBecomesRowVersionConflict(t *testing.T) {
	mem := repositories.NewMemoryWorkRepository()
	w := seedWork(t, mem, "BUSY0001", models.WorkStatusPublished, "")
	repo := &corruptRepo{WorkRepository: mem, updateErr: utils.ErrRowVersionConflict}
	svc := NewWorkService(repo)

	_, err := svc.Assign(context.Background(), w.ID, "E1")
	var rvErr *internal_utils.RowVersionConflictError
	require.True(t, errors.As(err, &rvErr))
	require.NotNil(t, rvErr.Current)
	assert.Equal(t, w.ID, rvErr.Current.ID)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "code_mismatch", outcome(internal_utils.ErrCodeMismatch))
	assert.Equal(t, "invalid_state", outcome(errors.Join(errors.New("ctx"), internal_utils.ErrInvalidState)))
	assert.Equal(t, "row_version_conflict", outcome(internal_utils.NewRowVersionConflictError(nil)))
	assert.Equal(t, "rate_limit_exceeded", outcome(utils.ErrRateLimitExceeded))
	assert.Equal(t, "error", outcome(errors.New("db down")))
}

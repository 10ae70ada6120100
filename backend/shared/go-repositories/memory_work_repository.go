// go-repositories/memory_work_repository.go

package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

// memoryWorkRepo keeps works in process. It enforces the same uniqueness
// rules as the Postgres schema (manual code, one active work per employee)
// so services behave identically against either store.
type memoryWorkRepo struct {
	mu    sync.RWMutex
	works map[uuid.UUID]*models.Work
	now   func() time.Time
}

func NewMemoryWorkRepository() WorkRepository {
	return &memoryWorkRepo{
		works: map[uuid.UUID]*models.Work{},
		now:   time.Now,
	}
}

func (r *memoryWorkRepo) Create(ctx context.Context, w *models.Work) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.works[w.ID]; exists {
		return fmt.Errorf("work %s already exists", w.ID)
	}
	if err := r.checkConstraintsLocked(w); err != nil {
		return err
	}
	stored := w.Clone()
	stored.RowVersion = 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	if stored.Skills == nil {
		stored.Skills = []string{}
	}
	r.works[w.ID] = stored

	w.RowVersion = stored.RowVersion
	w.CreatedAt = stored.CreatedAt
	w.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memoryWorkRepo) Upsert(ctx context.Context, w *models.Work) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkConstraintsLocked(w); err != nil {
		return err
	}
	stored := w.Clone()
	if existing, ok := r.works[w.ID]; ok {
		stored.RowVersion = existing.RowVersion + 1
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.RowVersion = 1
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = r.now().UTC()
		}
	}
	stored.UpdatedAt = r.now().UTC()
	r.works[w.ID] = stored
	return nil
}

func (r *memoryWorkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.works[id].Clone(), nil
}

func (r *memoryWorkRepo) GetByManualCode(ctx context.Context, code string) (*models.Work, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.works {
		if w.ManualCode == code {
			return w.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memoryWorkRepo) ListActiveByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	return r.filter(ctx, func(w *models.Work) bool {
		return w.IsAssignedTo(employeeID) && w.Status.IsActive()
	})
}

func (r *memoryWorkRepo) ListByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	return r.filter(ctx, func(w *models.Work) bool { return w.IsAssignedTo(employeeID) })
}

func (r *memoryWorkRepo) ListByEmployer(ctx context.Context, employerID string) ([]*models.Work, error) {
	return r.filter(ctx, func(w *models.Work) bool { return w.EmployerID == employerID })
}

func (r *memoryWorkRepo) filter(ctx context.Context, keep func(*models.Work) bool) ([]*models.Work, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Work{}
	for _, w := range r.works {
		if keep(w) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryWorkRepo) CountByStatus(ctx context.Context) (map[models.WorkStatusType]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[models.WorkStatusType]int{}
	for _, w := range r.works {
		out[w.Status]++
	}
	return out, nil
}

func (r *memoryWorkRepo) ListEmployeesWithMultipleActive(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[string]int{}
	for _, w := range r.works {
		if w.HoldsActiveSlot() {
			counts[*w.EmployeeID]++
		}
	}
	for emp, n := range counts {
		if n < 2 {
			delete(counts, emp)
		}
	}
	return counts, nil
}

func (r *memoryWorkRepo) UpdateIfVersion(ctx context.Context, w *models.Work, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.works[w.ID]
	if !ok || existing.RowVersion != expectedVersion {
		return 0, nil
	}
	if err := r.checkConstraintsLocked(w); err != nil {
		return 0, err
	}
	stored := w.Clone()
	stored.RowVersion = expectedVersion + 1
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now().UTC()
	r.works[w.ID] = stored
	w.UpdatedAt = stored.UpdatedAt
	return 1, nil
}

func (r *memoryWorkRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error) {
	return WithRetry(
		ctx,
		defaultMaxRetries,
		id.String(),
		func(ctx context.Context, id string) (*models.Work, error) {
			parsed, err := uuid.Parse(id)
			if err != nil {
				return nil, err
			}
			return r.GetByID(ctx, parsed)
		},
		r.UpdateIfVersion,
		mutate,
	)
}

// checkConstraintsLocked mirrors works_manual_code_key and
// works_one_active_per_employee. Caller holds r.mu.
func (r *memoryWorkRepo) checkConstraintsLocked(w *models.Work) error {
	for id, other := range r.works {
		if id == w.ID {
			continue
		}
		if other.ManualCode == w.ManualCode {
			return fmt.Errorf("%w: %s", ErrManualCodeTaken, w.ManualCode)
		}
		if w.HoldsActiveSlot() && other.HoldsActiveSlot() && *other.EmployeeID == *w.EmployeeID {
			return fmt.Errorf("%w: employee %s holds work %s", ErrActiveSlotTaken, *w.EmployeeID, id)
		}
	}
	return nil
}

// go-repositories/work_repository.go

package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

const (
	pgUniqueViolation = "23505"

	constraintManualCode = "works_manual_code_key"
	constraintActiveSlot = "works_one_active_per_employee"
)

// WorksSchema is applied by EnsureSchema; it is idempotent.
const WorksSchema = `
CREATE TABLE IF NOT EXISTS works (
    id              UUID PRIMARY KEY,
    title           TEXT NOT NULL,
    employer_name   TEXT NOT NULL DEFAULT '',
    employer_id     TEXT NOT NULL,
    employee_id     TEXT,
    wage            DOUBLE PRECISION NOT NULL DEFAULT 0,
    payment_type    TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL,
    location        TEXT NOT NULL DEFAULT '',
    skills          TEXT[] NOT NULL DEFAULT '{}',
    manual_code     TEXT NOT NULL,
    completion_code TEXT,
    start_time      TIMESTAMPTZ,
    end_time        TIMESTAMPTZ,
    row_version     BIGINT NOT NULL DEFAULT 1,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT works_manual_code_key UNIQUE (manual_code)
);

CREATE UNIQUE INDEX IF NOT EXISTS works_one_active_per_employee
    ON works (employee_id)
    WHERE employee_id IS NOT NULL AND status IN ('assigned', 'active', 'paused');

CREATE INDEX IF NOT EXISTS works_employer_id_idx ON works (employer_id);
`

type WorkRepository interface {
	Create(ctx context.Context, w *models.Work) error
	// Upsert inserts or fully replaces a work by id (used by imports).
	Upsert(ctx context.Context, w *models.Work) error

	// Lookups return (nil, nil) when nothing matches.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error)
	GetByManualCode(ctx context.Context, code string) (*models.Work, error)

	ListActiveByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error)
	ListByEmployer(ctx context.Context, employerID string) ([]*models.Work, error)
	CountByStatus(ctx context.Context) (map[models.WorkStatusType]int, error)

	// ListEmployeesWithMultipleActive maps employee id → active work count
	// for every employee holding more than one active work.
	ListEmployeesWithMultipleActive(ctx context.Context) (map[string]int, error)

	UpdateIfVersion(ctx context.Context, w *models.Work, expectedVersion int64) (int64, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error)
}

type workRepo struct {
	db   DB
	base *BaseVersionedRepo[*models.Work]
}

func NewWorkRepository(db DB) WorkRepository {
	r := &workRepo{db: db}
	r.base = NewBaseRepo(db, baseSelectWork()+" WHERE id=$1", scanWork)
	return r
}

// EnsureSchema creates the works table and its indexes when missing.
func EnsureSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, WorksSchema)
	return err
}

func baseSelectWork() string {
	return `
        SELECT
            id, title, employer_name, employer_id, employee_id,
            wage, payment_type, status, location, skills,
            manual_code, completion_code, start_time, end_time,
            row_version, created_at, updated_at
        FROM works
    `
}

func scanWork(row pgx.Row) (*models.Work, error) {
	var w models.Work
	var skills []string
	err := row.Scan(
		&w.ID,
		&w.Title,
		&w.EmployerName,
		&w.EmployerID,
		&w.EmployeeID,
		&w.Wage,
		&w.PaymentType,
		&w.Status,
		&w.Location,
		&skills,
		&w.ManualCode,
		&w.CompletionCode,
		&w.StartTime,
		&w.EndTime,
		&w.RowVersion,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []string{}
	}
	w.Skills = skills
	return &w, nil
}

func (r *workRepo) Create(ctx context.Context, w *models.Work) error {
	skills := w.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO works (
            id, title, employer_name, employer_id, employee_id,
            wage, payment_type, status, location, skills,
            manual_code, completion_code, start_time, end_time,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1,$15,$15
        )
    `,
		w.ID,
		w.Title,
		w.EmployerName,
		w.EmployerID,
		w.EmployeeID,
		w.Wage,
		w.PaymentType,
		w.Status,
		w.Location,
		skills,
		w.ManualCode,
		w.CompletionCode,
		w.StartTime,
		w.EndTime,
		w.CreatedAt,
	)
	if err != nil {
		return translateWriteErr(err)
	}
	w.RowVersion = 1
	w.UpdatedAt = w.CreatedAt
	return nil
}

func (r *workRepo) Upsert(ctx context.Context, w *models.Work) error {
	skills := w.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO works (
            id, title, employer_name, employer_id, employee_id,
            wage, payment_type, status, location, skills,
            manual_code, completion_code, start_time, end_time,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1,$15,NOW()
        )
        ON CONFLICT (id) DO UPDATE SET
            title=EXCLUDED.title,
            employer_name=EXCLUDED.employer_name,
            employer_id=EXCLUDED.employer_id,
            employee_id=EXCLUDED.employee_id,
            wage=EXCLUDED.wage,
            payment_type=EXCLUDED.payment_type,
            status=EXCLUDED.status,
            location=EXCLUDED.location,
            skills=EXCLUDED.skills,
            manual_code=EXCLUDED.manual_code,
            completion_code=EXCLUDED.completion_code,
            start_time=EXCLUDED.start_time,
            end_time=EXCLUDED.end_time,
            row_version=works.row_version+1,
            updated_at=NOW()
    `,
		w.ID,
		w.Title,
		w.EmployerName,
		w.EmployerID,
		w.EmployeeID,
		w.Wage,
		w.PaymentType,
		w.Status,
		w.Location,
		skills,
		w.ManualCode,
		w.CompletionCode,
		w.StartTime,
		w.EndTime,
		w.CreatedAt,
	)
	return translateWriteErr(err)
}

func (r *workRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error) {
	return r.base.GetByID(ctx, id.String())
}

func (r *workRepo) GetByManualCode(ctx context.Context, code string) (*models.Work, error) {
	row := r.db.QueryRow(ctx, baseSelectWork()+" WHERE manual_code=$1", code)
	w, err := scanWork(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

func (r *workRepo) ListActiveByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	return r.list(ctx, baseSelectWork()+`
        WHERE employee_id=$1 AND status = ANY($2)
        ORDER BY created_at DESC
    `, employeeID, activeStatusStrings())
}

func (r *workRepo) ListByEmployee(ctx context.Context, employeeID string) ([]*models.Work, error) {
	return r.list(ctx, baseSelectWork()+" WHERE employee_id=$1 ORDER BY created_at DESC", employeeID)
}

func (r *workRepo) ListByEmployer(ctx context.Context, employerID string) ([]*models.Work, error) {
	return r.list(ctx, baseSelectWork()+" WHERE employer_id=$1 ORDER BY created_at DESC", employerID)
}

func (r *workRepo) list(ctx context.Context, q string, args ...any) ([]*models.Work, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying works: %w", err)
	}
	defer rows.Close()

	out := []*models.Work{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workRepo) CountByStatus(ctx context.Context) (map[models.WorkStatusType]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM works GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.WorkStatusType]int{}
	for rows.Next() {
		var st models.WorkStatusType
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

func (r *workRepo) ListEmployeesWithMultipleActive(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
        SELECT employee_id, COUNT(*)
        FROM works
        WHERE employee_id IS NOT NULL AND status = ANY($1)
        GROUP BY employee_id
        HAVING COUNT(*) > 1
    `, activeStatusStrings())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var emp string
		var n int
		if err := rows.Scan(&emp, &n); err != nil {
			return nil, err
		}
		out[emp] = n
	}
	return out, rows.Err()
}

// UpdateIfVersion is the compare-and-set primitive every mutation goes
// through: the row is written only if row_version still equals
// expectedVersion. On success w.UpdatedAt carries the stored timestamp.
func (r *workRepo) UpdateIfVersion(ctx context.Context, w *models.Work, expectedVersion int64) (int64, error) {
	skills := w.Skills
	if skills == nil {
		skills = []string{}
	}
	err := r.db.QueryRow(ctx, `
        UPDATE works
        SET title=$1,
            employer_name=$2,
            employer_id=$3,
            employee_id=$4,
            wage=$5,
            payment_type=$6,
            status=$7,
            location=$8,
            skills=$9,
            manual_code=$10,
            completion_code=$11,
            start_time=$12,
            end_time=$13,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$14 AND row_version=$15
        RETURNING updated_at
    `,
		w.Title,
		w.EmployerName,
		w.EmployerID,
		w.EmployeeID,
		w.Wage,
		w.PaymentType,
		w.Status,
		w.Location,
		skills,
		w.ManualCode,
		w.CompletionCode,
		w.StartTime,
		w.EndTime,
		w.ID,
		expectedVersion,
	).Scan(&w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, translateWriteErr(err)
	}
	return 1, nil
}

func (r *workRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Work) error) (*models.Work, error) {
	return r.base.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch {
		case pgErr.ConstraintName == constraintManualCode || strings.Contains(pgErr.Message, constraintManualCode):
			return fmt.Errorf("%w: %s", ErrManualCodeTaken, pgErr.Detail)
		case pgErr.ConstraintName == constraintActiveSlot || strings.Contains(pgErr.Message, constraintActiveSlot):
			return fmt.Errorf("%w: %s", ErrActiveSlotTaken, pgErr.Detail)
		}
	}
	return err
}

func activeStatusStrings() []string {
	out := make([]string, 0, len(models.ActiveWorkStatuses))
	for _, st := range models.ActiveWorkStatuses {
		out = append(out, string(st))
	}
	return out
}

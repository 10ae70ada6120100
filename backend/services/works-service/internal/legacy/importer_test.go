package legacy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRows_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(sampleLegacyDB(t))
	require.NoError(t, err)
	defer db.Close()
	rows, err := ReadRows(ctx, db)
	require.NoError(t, err)

	repo := repositories.NewMemoryWorkRepository()
	im := NewImporter(repo)

	rep, err := im.ImportRows(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Imported)
	assert.Equal(t, 0, rep.Skipped)

	first, err := repo.GetByID(ctx, WorkID("legacy-1"))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "ABCD1234", first.ManualCode)
	assert.Equal(t, models.WorkStatusPublished, first.Status)
	assert.Equal(t, []string{"cleaning", "kitchen"}, first.Skills)

	rep, err = im.ImportRows(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Imported)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.WorkStatusPublished])
	assert.Equal(t, 1, counts[models.WorkStatusActive])
	assert.Equal(t, 1, counts[models.WorkStatusCompleted])

	again, err := repo.GetByID(ctx, WorkID("legacy-1"))
	require.NoError(t, err)
	assert.Equal(t, first.ManualCode, again.ManualCode)
}

func TestImportRows_ManualCodeCollision(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryWorkRepository()
	im := NewImporter(repo)

	rep, err := im.ImportRows(ctx, []Row{
		{ID: str("a"), Title: str("A"), EmployerID: str("R1"), ManualCode: str("SAME0001")},
		{ID: str("b"), Title: str("B"), EmployerID: str("R1"), ManualCode: str("SAME0001")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Imported)

	b, err := repo.GetByID(ctx, WorkID("b"))
	require.NoError(t, err)
	assert.Equal(t, DerivedManualCode(b.ID, 1), b.ManualCode)
	assert.True(t, hasWarning(rep, "already in use"))
}

func TestImportRows_SecondActiveWorkSkipped(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryWorkRepository()
	im := NewImporter(repo)
	im.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	rep, err := im.ImportRows(ctx, []Row{
		{ID: str("a"), EmployeeID: str("E1"), Status: str("in_progress")},
		{ID: str("b"), EmployeeID: str("E1"), Status: str("pending")},
		{ID: str("c"), Status: str("lost")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 2, rep.Skipped)
	assert.True(t, hasWarning(rep, "already holds an active work"))

	active, err := repo.ListActiveByEmployee(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, WorkID("a"), active[0].ID)
}

func hasWarning(rep Report, substr string) bool {
	for _, w := range rep.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

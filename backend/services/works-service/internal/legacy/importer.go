package legacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// maxDerivedCodes bounds the alternatives tried for a colliding manual code.
const maxDerivedCodes = 5

type Report struct {
	Imported int
	Skipped  int
	Warnings []string
}

// Importer upserts legacy works into the service store. Upsert replaces by
// id, so running the same import twice leaves the store unchanged.
type Importer struct {
	repo repositories.WorkRepository
	now  func() time.Time
}

func NewImporter(repo repositories.WorkRepository) *Importer {
	return &Importer{repo: repo, now: time.Now}
}

func (im *Importer) ImportRows(ctx context.Context, rows []Row) (Report, error) {
	var rep Report
	now := im.now()
	for _, r := range rows {
		w, warnings, err := ToWork(r, now)
		rep.Warnings = append(rep.Warnings, warnings...)
		if err != nil {
			rep.Skipped++
			rep.Warnings = append(rep.Warnings, err.Error())
			continue
		}
		ok, err := im.store(ctx, w, &rep)
		if err != nil {
			return rep, err
		}
		if ok {
			rep.Imported++
		} else {
			rep.Skipped++
		}
	}

	utils.Logger.WithFields(logrus.Fields{
		"imported": rep.Imported,
		"skipped":  rep.Skipped,
		"warnings": len(rep.Warnings),
	}).Info("Legacy import finished")
	return rep, nil
}

// ImportWorks stores already converted works, such as fixtures.
func (im *Importer) ImportWorks(ctx context.Context, works []*models.Work) (Report, error) {
	var rep Report
	for _, w := range works {
		ok, err := im.store(ctx, w, &rep)
		if err != nil {
			return rep, err
		}
		if ok {
			rep.Imported++
		} else {
			rep.Skipped++
		}
	}
	return rep, nil
}

// store reports false when the row conflicts with data already in the
// store and was left out.
func (im *Importer) store(ctx context.Context, w *models.Work, rep *Report) (bool, error) {
	for salt := 1; ; salt++ {
		err := im.repo.Upsert(ctx, w)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repositories.ErrActiveSlotTaken):
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"%s: employee %s already holds an active work, skipped", w.ID, *w.EmployeeID,
			))
			return false, nil
		case errors.Is(err, repositories.ErrManualCodeTaken) && salt <= maxDerivedCodes:
			old := w.ManualCode
			w.ManualCode = DerivedManualCode(w.ID, salt)
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"%s: manual code %s already in use, replaced with %s", w.ID, old, w.ManualCode,
			))
		case errors.Is(err, repositories.ErrManualCodeTaken):
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: no free manual code, skipped", w.ID))
			return false, nil
		default:
			return false, fmt.Errorf("storing work %s: %w", w.ID, err)
		}
	}
}

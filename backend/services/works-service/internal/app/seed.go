package app

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/legacy"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

// SentinelWorkID is used to check if seeding has already occurred.
const SentinelWorkID = "a1b2c3d4-0000-4000-8000-000000000001"

//go:embed seed_works.yaml
var seedWorks []byte

// SeedAllTestData seeds the sample works. It is idempotent and will not
// re-seed if the sentinel work is found.
func SeedAllTestData(ctx context.Context, repo repositories.WorkRepository) error {
	existing, err := repo.GetByID(ctx, uuid.MustParse(SentinelWorkID))
	if err != nil {
		return fmt.Errorf("failed to check for sentinel work: %w", err)
	}
	if existing != nil {
		utils.Logger.Info("works-service: Seed data already present; skipping seeding.")
		return nil
	}

	works, err := legacy.LoadFixtures(bytes.NewReader(seedWorks), time.Now())
	if err != nil {
		return fmt.Errorf("loading seed works: %w", err)
	}
	rep, err := legacy.NewImporter(repo).ImportWorks(ctx, works)
	if err != nil {
		return err
	}
	for _, w := range rep.Warnings {
		utils.Logger.Warn(w)
	}
	utils.Logger.Infof("works-service: seeded %d works", rep.Imported)
	return nil
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/config"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config

	// DB is nil when the in-memory store is in use.
	DB    *pgxpool.Pool
	Works repositories.WorkRepository
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.DBUrl == "" {
		utils.Logger.Warn("DB_URL not set; works-service is using the in-memory store. Data is lost on restart.")
		return &App{Config: cfg, Works: repositories.NewMemoryWorkRepository()}, nil
	}

	effectiveURL := cfg.DBUrl
	if cfg.LDFlag_UsingIsolatedSchema {
		var err error
		effectiveURL, err = utils.WithIsolatedRole(cfg.DBUrl, cfg.UniqueRunnerID, cfg.UniqueRunNumber)
		if err != nil {
			return nil, err
		}
		utils.Logger.Infof("Using isolated schema for works-service; role=%s", strings.ToLower(cfg.UniqueRunnerID+"-"+cfg.UniqueRunNumber))
	} else {
		utils.Logger.Info("Isolated schema disabled; using public schema for works-service.")
	}

	dbPool, err := Connect(effectiveURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := repositories.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ensuring works schema: %w", err)
	}

	return &App{
		Config: cfg,
		DB:     dbPool,
		Works:  repositories.NewWorkRepository(dbPool),
	}, nil
}

// Connect opens a pool, retrying with exponential backoff while the
// database comes up.
func Connect(databaseURL string) (*pgxpool.Pool, error) {
	backoff := initialBackoff
	for i := 1; ; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err := newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("works-service connected to DB on attempt %d", i)
			return dbPool, nil
		}

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
		}
		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		time.Sleep(backoff)
		backoff *= 2
	}
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("works-service DB connection closed.")
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

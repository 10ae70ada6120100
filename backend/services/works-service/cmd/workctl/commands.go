package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/shiftly/mono-repo/backend/services/works-service/internal/app"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/legacy"
	"github.com/shiftly/mono-repo/backend/shared/go-repositories"
	"github.com/spf13/cobra"
)

const schemaTimeout = 10 * time.Second

type storeFlags struct {
	dbURL  string
	dryRun bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dbURL, "db-url", os.Getenv("DB_URL"), "Postgres URL of the works store (defaults to $DB_URL)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Load into an in-memory store and only print the report")
}

// open returns the target store and a func releasing it.
func (f *storeFlags) open(ctx context.Context) (repositories.WorkRepository, func(), error) {
	if f.dryRun {
		return repositories.NewMemoryWorkRepository(), func() {}, nil
	}
	if f.dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url (or DB_URL) is required unless --dry-run is set")
	}
	pool, err := app.Connect(f.dbURL)
	if err != nil {
		return nil, nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := repositories.EnsureSchema(sctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensuring works schema: %w", err)
	}
	return repositories.NewWorkRepository(pool), pool.Close, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "workctl",
		Short: "Maintenance tool for the works store",
		Long: `workctl moves data into the works store.

Available subcommands:
  import  - Upsert works from a legacy SQLite database
  inspect - Summarise a legacy SQLite database
  seed    - Create works from a YAML fixture file`,
		SilenceUsage: true,
	}
	root.AddCommand(newImportCmd(), newInspectCmd(), newSeedCmd())
	return root
}

func newImportCmd() *cobra.Command {
	var (
		sqlitePath string
		store      storeFlags
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert works from a legacy SQLite database",
		Long: `Reads the legacy works table and upserts every row into the works store.
Re-running the same import leaves the store unchanged.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := legacy.OpenSQLite(sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := legacy.ReadRows(ctx, db)
			if err != nil {
				return err
			}
			repo, closeStore, err := store.open(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rep, err := legacy.NewImporter(repo).ImportRows(ctx, rows)
			printReport(cmd.OutOrStdout(), rep)
			return err
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the legacy SQLite database")
	_ = cmd.MarkFlagRequired("sqlite")
	store.register(cmd)
	return cmd
}

func newInspectCmd() *cobra.Command {
	var sqlitePath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise a legacy SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := legacy.OpenSQLite(sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			sum, err := legacy.Inspect(cmd.Context(), db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "works: %d\n", sum.Total)
			statuses := make([]string, 0, len(sum.ByStatus))
			for s := range sum.ByStatus {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				label := s
				if label == "" {
					label = "(none)"
				}
				fmt.Fprintf(out, "  %-12s %d\n", label, sum.ByStatus[s])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the legacy SQLite database")
	_ = cmd.MarkFlagRequired("sqlite")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var (
		fixturePath string
		store       storeFlags
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create works from a YAML fixture file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(fixturePath)
			if err != nil {
				return err
			}
			defer f.Close()

			works, err := legacy.LoadFixtures(f, time.Now())
			if err != nil {
				return err
			}
			repo, closeStore, err := store.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			rep, err := legacy.NewImporter(repo).ImportWorks(cmd.Context(), works)
			printReport(cmd.OutOrStdout(), rep)
			return err
		},
	}
	cmd.Flags().StringVar(&fixturePath, "file", "", "YAML fixture file")
	_ = cmd.MarkFlagRequired("file")
	store.register(cmd)
	return cmd
}

func printReport(out io.Writer, rep legacy.Report) {
	fmt.Fprintf(out, "imported: %d\nskipped:  %d\n", rep.Imported, rep.Skipped)
	for _, w := range rep.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

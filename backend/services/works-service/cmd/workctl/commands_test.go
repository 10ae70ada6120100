package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeLegacyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE works (id TEXT PRIMARY KEY, title TEXT, employer_id TEXT, employee_id TEXT, status TEXT, manual_code TEXT)`,
		`INSERT INTO works VALUES ('1','Dishwasher','R1',NULL,'pending','ABCD1234')`,
		`INSERT INTO works VALUES ('2','Waiter','R1','E1','in_progress','bad')`,
		`INSERT INTO works VALUES ('3','Cook','R2',NULL,NULL,NULL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestInspectCmd(t *testing.T) {
	out, err := runCmd(t, "inspect", "--sqlite", writeLegacyDB(t))
	require.NoError(t, err)
	assert.Contains(t, out, "works: 3")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "in_progress")
}

func TestImportCmd_DryRun(t *testing.T) {
	out, err := runCmd(t, "import", "--sqlite", writeLegacyDB(t), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "imported: 3")
	assert.Contains(t, out, "invalid manual code")
}

func TestImportCmd_NeedsStore(t *testing.T) {
	t.Setenv("DB_URL", "")
	_, err := runCmd(t, "import", "--sqlite", writeLegacyDB(t))
	assert.ErrorContains(t, err, "--db-url")
}

func TestImportCmd_RequiresSqliteFlag(t *testing.T) {
	_, err := runCmd(t, "import", "--dry-run")
	assert.Error(t, err)
}

func TestSeedCmd_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
works:
  - title: Dishwasher
    employerId: R1
    manualCode: ABCD1234
`), 0o600))

	out, err := runCmd(t, "seed", "--file", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "imported: 1")
}

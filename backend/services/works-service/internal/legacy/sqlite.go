package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// LegacyTable is the table the old migration scripts wrote.
const LegacyTable = "works"

// knownColumns in the order Row is filled. Older dumps lack some of them;
// missing ones read as NULL.
var knownColumns = []string{
	"id",
	"title",
	"employer_name",
	"employer_id",
	"employee_id",
	"wage",
	"payment_type",
	"status",
	"location",
	"skills",
	"manual_code",
	"completion_code",
	"created_at",
	"start_time",
	"end_time",
}

// Row is one record of the legacy works table, as loosely typed as SQLite
// stored it.
type Row struct {
	ID             sql.NullString
	Title          sql.NullString
	EmployerName   sql.NullString
	EmployerID     sql.NullString
	EmployeeID     sql.NullString
	Wage           sql.NullFloat64
	PaymentType    sql.NullString
	Status         sql.NullString
	Location       sql.NullString
	Skills         sql.NullString
	ManualCode     sql.NullString
	CompletionCode sql.NullString
	CreatedAt      sql.NullString
	StartTime      sql.NullString
	EndTime        sql.NullString
}

func (r *Row) dest() []any {
	return []any{
		&r.ID, &r.Title, &r.EmployerName, &r.EmployerID, &r.EmployeeID,
		&r.Wage, &r.PaymentType, &r.Status, &r.Location, &r.Skills,
		&r.ManualCode, &r.CompletionCode, &r.CreatedAt, &r.StartTime, &r.EndTime,
	}
}

// OpenSQLite opens an existing legacy database file. A missing file is an
// error rather than a fresh empty database.
func OpenSQLite(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("legacy database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return db, nil
}

// columns lists the columns present on the legacy table.
func columns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", LegacyTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       any
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no %q table in legacy database", LegacyTable)
	}
	return cols, nil
}

// ReadRows loads every legacy row.
func ReadRows(ctx context.Context, db *sql.DB) ([]Row, error) {
	present, err := columns(ctx, db)
	if err != nil {
		return nil, err
	}
	if !present["id"] {
		return nil, fmt.Errorf("legacy %q table has no id column", LegacyTable)
	}

	selects := make([]string, len(knownColumns))
	for i, c := range knownColumns {
		if present[c] {
			selects[i] = c
		} else {
			selects[i] = "NULL"
		}
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(selects, ", "), LegacyTable)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reading legacy works: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scanning legacy work: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary is what `workctl inspect` prints.
type Summary struct {
	Total    int
	ByStatus map[string]int
}

func Inspect(ctx context.Context, db *sql.DB) (Summary, error) {
	present, err := columns(ctx, db)
	if err != nil {
		return Summary{}, err
	}
	statusExpr := "''"
	if present["status"] {
		statusExpr = "COALESCE(status, '')"
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s AS s, COUNT(*) FROM %s GROUP BY s ORDER BY s", statusExpr, LegacyTable,
	))
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	sum := Summary{ByStatus: map[string]int{}}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Summary{}, err
		}
		sum.ByStatus[status] = n
		sum.Total += n
	}
	return sum, rows.Err()
}

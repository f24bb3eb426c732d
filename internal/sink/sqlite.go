package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// SQLite loads tables into a SQLite database file. Useful for local
// inspection of a normalized dataset without a PostgreSQL server.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func sqliteQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CreateTable drops and recreates the relation from the table's shape.
func (s *SQLite) CreateTable(ctx context.Context, name string, tbl *table.Table) error {
	defs, err := columnDefs(tbl, sqliteQuote)
	if err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqliteQuote(name)); err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", sqliteQuote(name), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}
	return nil
}

// Load inserts all rows inside a single transaction with a prepared
// statement. Dates are stored in ISO form, the format SQLite's date
// functions expect.
func (s *SQLite) Load(ctx context.Context, name string, tbl *table.Table) error {
	columns := tbl.ColumnNames()
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteQuote(c)
		params[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load of %q: %w", name, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sqliteQuote(name), strings.Join(quoted, ", "), strings.Join(params, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert into %q: %w", name, err)
	}
	defer stmt.Close()

	for i := 0; i < tbl.NumRows(); i++ {
		vals := tbl.Row(i)
		args := make([]any, len(vals))
		for c, v := range vals {
			native := v.Native()
			if t, ok := native.(time.Time); ok {
				native = t.Format("2006-01-02")
			}
			args[c] = native
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d into %q: %w", i+1, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load of %q: %w", name, err)
	}
	return nil
}

// AddPrimaryKey enforces key uniqueness with a unique index. SQLite cannot
// add a primary key constraint to an existing table.
func (s *SQLite) AddPrimaryKey(ctx context.Context, name, column string) error {
	stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
		sqliteQuote(name+"_"+column+"_pkey"), sqliteQuote(name), sqliteQuote(column))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add primary key to %q: %w", name, err)
	}
	return nil
}

// Close closes the database file.
func (s *SQLite) Close() error {
	return s.db.Close()
}

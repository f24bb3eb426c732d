package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// Postgres loads tables into a PostgreSQL database via a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an established pool. The caller owns pool configuration;
// Close releases it.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureDatabase creates dbName on the server behind adminURL if it does not
// already exist. adminURL must point at a maintenance database (typically
// "postgres"); CREATE DATABASE cannot run inside a transaction, so a plain
// connection is used.
func EnsureDatabase(ctx context.Context, adminURL, dbName string) error {
	conn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return fmt.Errorf("connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database %q: %w", dbName, err)
	}
	if exists {
		return nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

// CreateTable drops and recreates the relation from the table's shape.
func (p *Postgres) CreateTable(ctx context.Context, name string, tbl *table.Table) error {
	quote := func(s string) string { return pgx.Identifier{s}.Sanitize() }

	defs, err := columnDefs(tbl, quote)
	if err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	if _, err := p.pool.Exec(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}
	return nil
}

// Load bulk-inserts all rows using the COPY protocol.
func (p *Postgres) Load(ctx context.Context, name string, tbl *table.Table) error {
	columns := tbl.ColumnNames()
	rows := make([][]any, tbl.NumRows())
	for i := range rows {
		vals := tbl.Row(i)
		row := make([]any, len(vals))
		for c, v := range vals {
			row[c] = v.Native()
		}
		rows[i] = row
	}

	copied, err := p.pool.CopyFrom(ctx, pgx.Identifier{name}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %q: %w", name, err)
	}
	if copied != int64(len(rows)) {
		return fmt.Errorf("copy into %q: %d of %d rows copied", name, copied, len(rows))
	}
	return nil
}

// AddPrimaryKey applies a single-column primary key constraint.
func (p *Postgres) AddPrimaryKey(ctx context.Context, name, column string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)",
		pgx.Identifier{name}.Sanitize(), pgx.Identifier{column}.Sanitize())
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("add primary key to %q: %w", name, err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

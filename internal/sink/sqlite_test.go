package sink

import (
	"context"
	"testing"
	"time"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

func sqliteSink(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := sqliteSink(t)

	tbl := table.MustNew(
		table.Column{Name: "type", Values: []table.Value{table.String("Movie"), table.String("TV Show")}},
		table.Column{Name: "id", Values: []table.Value{table.Int(1), table.Int(2)}},
	)

	if err := s.CreateTable(ctx, "type", tbl); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := s.Load(ctx, "type", tbl); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.AddPrimaryKey(ctx, "type", "id"); err != nil {
		t.Fatalf("AddPrimaryKey: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "type"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}

	var name string
	err := s.db.QueryRowContext(ctx, `SELECT "type" FROM "type" WHERE "id" = 2`).Scan(&name)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "TV Show" {
		t.Errorf("value = %q, want TV Show", name)
	}

	// The unique index enforces key uniqueness.
	if _, err := s.db.ExecContext(ctx, `INSERT INTO "type" ("type", "id") VALUES ('Dup', 1)`); err == nil {
		t.Error("duplicate id insert should fail")
	}
}

func TestSQLiteCreateReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := sqliteSink(t)

	first := table.MustNew(
		table.Column{Name: "a", Values: []table.Value{table.String("x")}},
	)
	second := table.MustNew(
		table.Column{Name: "b", Values: []table.Value{table.Int(1)}},
	)

	if err := s.CreateTable(ctx, "t", first); err != nil {
		t.Fatalf("first CreateTable: %v", err)
	}
	if err := s.Load(ctx, "t", first); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := s.CreateTable(ctx, "t", second); err != nil {
		t.Fatalf("second CreateTable: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "t"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("recreated table has %d rows, want 0", count)
	}
}

func TestSQLiteLoadNullsAndDates(t *testing.T) {
	ctx := context.Background()
	s := sqliteSink(t)

	added := time.Date(2019, 9, 9, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.Column{Name: "title", Values: []table.Value{table.String("Alpha"), table.Null()}},
		table.Column{Name: "date_added", Values: []table.Value{table.Date(added), table.Null()}},
	)

	if err := s.CreateTable(ctx, "title", tbl); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := s.Load(ctx, "title", tbl); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var date string
	err := s.db.QueryRowContext(ctx, `SELECT "date_added" FROM "title" WHERE "title" = 'Alpha'`).Scan(&date)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if date != "2019-09-09" {
		t.Errorf("date stored as %q, want 2019-09-09", date)
	}

	var nulls int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "title" WHERE "title" IS NULL AND "date_added" IS NULL`).Scan(&nulls)
	if err != nil {
		t.Fatalf("count nulls: %v", err)
	}
	if nulls != 1 {
		t.Errorf("null row count = %d, want 1", nulls)
	}
}

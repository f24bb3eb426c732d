// Package sink persists normalized tables to a destination storage engine.
//
// A Sink receives whole, already-validated tables: it derives relation DDL
// from table shape, bulk-inserts rows, and applies single-column primary-key
// constraints to entity tables after loading. Two engines are provided,
// PostgreSQL and SQLite.
package sink

import (
	"context"
	"fmt"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// Sink is the destination storage boundary.
type Sink interface {
	// CreateTable drops and recreates the named relation from the table's
	// shape.
	CreateTable(ctx context.Context, name string, tbl *table.Table) error

	// Load bulk-inserts all rows of the table into the named relation.
	Load(ctx context.Context, name string, tbl *table.Table) error

	// AddPrimaryKey constrains the named single column as the relation's
	// primary key. Applied to entity tables only, never to junctions.
	AddPrimaryKey(ctx context.Context, name, column string) error

	Close() error
}

// sqlType maps a column's observed value kind to a portable SQL type.
// The first non-null value decides; an all-null column degrades to text.
func sqlType(name string, vals []table.Value) (string, error) {
	for _, v := range vals {
		switch v.Kind() {
		case table.KindNull:
			continue
		case table.KindString:
			return "text", nil
		case table.KindInt:
			return "bigint", nil
		case table.KindDate:
			return "date", nil
		default:
			return "", fmt.Errorf("column %q holds %s values; explode multi-valued columns before loading", name, v.Kind())
		}
	}
	return "text", nil
}

// columnDefs renders "name type" pairs for a CREATE TABLE statement, with
// identifiers quoted by the engine-specific quote function.
func columnDefs(tbl *table.Table, quote func(string) string) ([]string, error) {
	names := tbl.ColumnNames()
	defs := make([]string, 0, len(names))
	for _, name := range names {
		vals, _ := tbl.Column(name)
		typ, err := sqlType(name, vals)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fmt.Sprintf("%s %s", quote(name), typ))
	}
	return defs, nil
}

// Package table provides the in-memory tabular structure the normalizer
// operates on: ordered, named, typed columns of equal length.
//
// Tables are value-semantics containers. Every derivation helper returns a
// new table; callers never observe a table mutating after it has been
// returned to them.
package table

import (
	"fmt"
	"strings"
)

// Column is a named, ordered sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols   []Column
	byName map[string]int
}

// New builds a table from the given columns. It fails on duplicate or empty
// column names and on ragged input (columns of differing lengths).
func New(cols ...Column) (*Table, error) {
	t := &Table{
		cols:   make([]Column, 0, len(cols)),
		byName: make(map[string]int, len(cols)),
	}

	rows := -1
	for _, c := range cols {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if _, exists := t.byName[c.Name]; exists {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), rows)
		}
		t.byName[c.Name] = len(t.cols)
		t.cols = append(t.cols, Column{Name: c.Name, Values: append([]Value(nil), c.Values...)})
	}

	return t, nil
}

// MustNew is New for statically known shapes; it panics on error.
// Intended for tests and fixtures.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil || len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byName[name]
	return ok
}

// Column returns the values of the named column. The returned slice is the
// table's backing storage; callers must not modify it.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i].Values, true
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for c := range t.cols {
		row[c] = t.cols[c].Values[i]
	}
	return row
}

// DropColumn returns a copy of the table without the named column.
func (t *Table) DropColumn(name string) (*Table, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("column %q not found", name)
	}
	kept := make([]Column, 0, len(t.cols)-1)
	for _, c := range t.cols {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	return New(kept...)
}

// Select returns a copy of the table containing only the named columns,
// in the order given.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		i, ok := t.byName[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols = append(cols, t.cols[i])
	}
	return New(cols...)
}

// AppendColumn returns a copy of the table with a new column appended.
func (t *Table) AppendColumn(name string, values []Value) (*Table, error) {
	if t.HasColumn(name) {
		return nil, fmt.Errorf("column %q already exists", name)
	}
	if len(values) != t.NumRows() {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(values), t.NumRows())
	}
	cols := append(append([]Column(nil), t.cols...), Column{Name: name, Values: values})
	return New(cols...)
}

// WithColumn returns a copy of the table with the named column's values
// replaced. Length must match the table's row count.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	if len(values) != t.NumRows() {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(values), t.NumRows())
	}
	cols := append([]Column(nil), t.cols...)
	cols[i] = Column{Name: name, Values: values}
	return New(cols...)
}

// Distinct returns a copy of the table with duplicate rows removed,
// keeping the first occurrence of each row.
func (t *Table) Distinct() *Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())

	for i := 0; i < t.NumRows(); i++ {
		var b strings.Builder
		for c := range t.cols {
			b.WriteString(t.cols[c].Values[i].Key())
			b.WriteByte('\x1e')
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}

	cols := make([]Column, len(t.cols))
	for c := range t.cols {
		vals := make([]Value, 0, len(keep))
		for _, i := range keep {
			vals = append(vals, t.cols[c].Values[i])
		}
		cols[c] = Column{Name: t.cols[c].Name, Values: vals}
	}

	out, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return out
}

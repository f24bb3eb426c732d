package normalize

import (
	"errors"
	"testing"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

func strCol(name string, vals ...string) table.Column {
	values := make([]table.Value, len(vals))
	for i, v := range vals {
		if v == "" {
			values[i] = table.Null()
		} else {
			values[i] = table.String(v)
		}
	}
	return table.Column{Name: name, Values: values}
}

func intCol(name string, vals ...int64) table.Column {
	values := make([]table.Value, len(vals))
	for i, v := range vals {
		values[i] = table.Int(v)
	}
	return table.Column{Name: name, Values: values}
}

func TestSplitWithForeignKey(t *testing.T) {
	input := table.MustNew(
		strCol("title", "Alpha", "Beta", "Gamma", "Delta"),
		strCol("type", "Movie", "TV Show", "Movie", "Movie"),
	)

	child, parent, err := SplitWithForeignKey(input, "type")
	if err != nil {
		t.Fatalf("SplitWithForeignKey: %v", err)
	}

	// Parent: one row per distinct value, dense ids in first-seen order.
	if parent.NumRows() != 2 {
		t.Fatalf("parent rows = %d, want 2", parent.NumRows())
	}
	names, _ := parent.Column("type")
	ids, _ := parent.Column("id")
	if s, _ := names[0].AsString(); s != "Movie" {
		t.Errorf("first parent value = %q, want Movie", s)
	}
	if s, _ := names[1].AsString(); s != "TV Show" {
		t.Errorf("second parent value = %q, want TV Show", s)
	}
	assertDenseIDs(t, ids)

	// Child: same row count, split column gone, foreign key appended.
	if child.NumRows() != input.NumRows() {
		t.Errorf("child rows = %d, want %d", child.NumRows(), input.NumRows())
	}
	if child.HasColumn("type") {
		t.Error("child still has the split column")
	}
	fks, ok := child.Column("type_id")
	if !ok {
		t.Fatal("child has no type_id column")
	}
	wantFKs := []int64{1, 2, 1, 1}
	for i, want := range wantFKs {
		got, _ := fks[i].AsInt()
		if got != want {
			t.Errorf("type_id[%d] = %d, want %d", i, got, want)
		}
	}
	assertForeignKeysResolve(t, fks, ids)

	// Input untouched.
	if !input.HasColumn("type") || input.NumRows() != 4 {
		t.Error("input table was mutated")
	}
}

func TestSplitWithForeignKeyCoalescesNulls(t *testing.T) {
	input := table.MustNew(
		strCol("rating", "PG", "", "PG", ""),
		strCol("title", "a", "b", "c", "d"),
	)

	child, parent, err := SplitWithForeignKey(input, "rating")
	if err != nil {
		t.Fatalf("SplitWithForeignKey: %v", err)
	}

	// One value plus nulls makes two entities, not a constant column.
	if parent.NumRows() != 2 {
		t.Fatalf("parent rows = %d, want 2", parent.NumRows())
	}

	names, _ := parent.Column("rating")
	var sawUnknown bool
	for _, v := range names {
		if v.IsNull() {
			t.Error("parent contains a null value")
		}
		if s, _ := v.AsString(); s == Unknown {
			sawUnknown = true
		}
	}
	if !sawUnknown {
		t.Errorf("parent has no %q row for null inputs", Unknown)
	}

	// Every child foreign key is non-null.
	fks, _ := child.Column("rating_id")
	for i, v := range fks {
		if v.IsNull() {
			t.Errorf("rating_id[%d] is null", i)
		}
	}
}

func TestSplitWithForeignKeyValidation(t *testing.T) {
	twoRows := func(cols ...table.Column) *table.Table {
		return table.MustNew(cols...)
	}

	tests := []struct {
		name   string
		input  *table.Table
		keyCol string
		want   any // pointer to target error type
	}{
		{
			name:   "nil table",
			input:  nil,
			keyCol: "x",
			want:   new(*ShapeError),
		},
		{
			name:   "single row",
			input:  twoRows(strCol("type", "Movie")),
			keyCol: "type",
			want:   new(*ShapeError),
		},
		{
			name:   "missing column",
			input:  twoRows(strCol("type", "Movie", "Show")),
			keyCol: "genre",
			want:   new(*ColumnNotFoundError),
		},
		{
			name:   "all null",
			input:  twoRows(strCol("type", "", ""), strCol("t", "a", "b")),
			keyCol: "type",
			want:   new(*DegenerateColumnError),
		},
		{
			name:   "all unique",
			input:  twoRows(strCol("type", "a", "b")),
			keyCol: "type",
			want:   new(*DegenerateColumnError),
		},
		{
			name:   "constant",
			input:  twoRows(strCol("type", "Movie", "Movie", "Movie")),
			keyCol: "type",
			want:   new(*DegenerateColumnError),
		},
		{
			name:   "numeric column",
			input:  twoRows(intCol("type_id", 1, 2, 1)),
			keyCol: "type_id",
			want:   new(*DegenerateColumnError),
		},
		{
			name: "multi-valued column",
			input: twoRows(table.Column{Name: "cast", Values: []table.Value{
				table.List("Anna", "Ben"),
				table.List("Anna"),
			}}),
			keyCol: "cast",
			want:   new(*WrongOperationError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitWithForeignKey(tt.input, tt.keyCol)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !asTarget(err, tt.want) {
				t.Errorf("error %v (%T) does not match %T", err, err, tt.want)
			}
		})
	}
}

// TestResplitIsRejected confirms that splitting an already-split table again
// on the surrogate column fails as degenerate rather than producing output.
func TestResplitIsRejected(t *testing.T) {
	input := table.MustNew(
		strCol("title", "a", "b", "c", "d"),
		strCol("type", "Movie", "TV Show", "Movie", "Movie"),
	)

	child, _, err := SplitWithForeignKey(input, "type")
	if err != nil {
		t.Fatalf("first split: %v", err)
	}

	_, _, err = SplitWithForeignKey(child, "type_id")
	var degenerate *DegenerateColumnError
	if !errors.As(err, &degenerate) {
		t.Fatalf("re-split error = %v, want DegenerateColumnError", err)
	}
}

// asTarget dispatches errors.As over the expected pointer-to-pointer type.
func asTarget(err error, want any) bool {
	switch target := want.(type) {
	case **ShapeError:
		return errors.As(err, target)
	case **ColumnNotFoundError:
		return errors.As(err, target)
	case **DegenerateColumnError:
		return errors.As(err, target)
	case **WrongOperationError:
		return errors.As(err, target)
	default:
		return false
	}
}

// assertDenseIDs checks ids form a contiguous 1..N sequence.
func assertDenseIDs(t *testing.T, ids []table.Value) {
	t.Helper()
	seen := make(map[int64]bool, len(ids))
	for i, v := range ids {
		id, ok := v.AsInt()
		if !ok {
			t.Fatalf("id[%d] is not an integer: %v", i, v)
		}
		if id < 1 || id > int64(len(ids)) {
			t.Errorf("id %d outside 1..%d", id, len(ids))
		}
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

// assertForeignKeysResolve checks every foreign key exists among the ids.
func assertForeignKeysResolve(t *testing.T, fks, ids []table.Value) {
	t.Helper()
	valid := make(map[int64]bool, len(ids))
	for _, v := range ids {
		id, _ := v.AsInt()
		valid[id] = true
	}
	for i, v := range fks {
		fk, ok := v.AsInt()
		if !ok {
			t.Fatalf("foreign key[%d] is not an integer: %v", i, v)
		}
		if !valid[fk] {
			t.Errorf("foreign key %d has no entity row", fk)
		}
	}
}

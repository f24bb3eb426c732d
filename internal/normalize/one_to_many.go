// Package normalize implements the relational normalization engine: it splits
// one-to-many and many-to-many categorical columns out of a single wide table
// into entity and junction tables with dense synthetic surrogate keys.
//
// Both splitters are pure functions. They validate their preconditions before
// deriving anything, never mutate the input table, and return freshly built
// tables the caller owns outright.
package normalize

import (
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// IDColumn is the name of the synthetic surrogate key column on every entity
// table produced by the splitters.
const IDColumn = "id"

// SplitWithForeignKey extracts a categorical column into a parent entity
// table and rewrites the source column as a foreign key.
//
// The parent holds one row per distinct value of keyCol (nulls coalesced to
// Unknown) with ids forming a dense 1..N sequence in first-seen order. The
// child is the input with keyCol removed and an integer "{keyCol}_id" column
// appended; its row count equals the input's and the foreign key is never
// null.
//
// Validation failures are reported as *ShapeError, *ColumnNotFoundError,
// *DegenerateColumnError, or *WrongOperationError, and leave the input
// untouched.
func SplitWithForeignKey(t *table.Table, keyCol string) (child, parent *table.Table, err error) {
	if err := validateShape(t); err != nil {
		return nil, nil, err
	}

	vals, ok := t.Column(keyCol)
	if !ok {
		return nil, nil, &ColumnNotFoundError{Column: keyCol}
	}

	if err := validateCategorical(keyCol, vals); err != nil {
		return nil, nil, err
	}

	distinct := distinctCoalescedCount(vals)
	switch {
	case distinct == t.NumRows():
		return nil, nil, &DegenerateColumnError{Column: keyCol, Reason: "all values are unique; no one-to-many relationship to split"}
	case distinct == 1:
		return nil, nil, &DegenerateColumnError{Column: keyCol, Reason: "only one unique value; no one-to-many relationship to split"}
	}

	// Assign dense ids to distinct coalesced values in first-seen order.
	ids := make(map[string]int64)
	var parentVals []table.Value
	var parentIDs []table.Value
	fks := make([]table.Value, len(vals))

	for i, v := range vals {
		cv := CoalesceUnknown(v)
		s, _ := cv.AsString()
		id, seen := ids[s]
		if !seen {
			id = int64(len(ids) + 1)
			ids[s] = id
			parentVals = append(parentVals, cv)
			parentIDs = append(parentIDs, table.Int(id))
		}
		fks[i] = table.Int(id)
	}

	parent, err = table.New(
		table.Column{Name: keyCol, Values: parentVals},
		table.Column{Name: IDColumn, Values: parentIDs},
	)
	if err != nil {
		return nil, nil, err
	}

	child, err = t.DropColumn(keyCol)
	if err != nil {
		return nil, nil, err
	}
	child, err = child.AppendColumn(keyCol+"_id", fks)
	if err != nil {
		return nil, nil, err
	}

	return child, parent, nil
}

// validateShape rejects inputs that are not genuine tables with at least two
// rows.
func validateShape(t *table.Table) error {
	if t == nil || t.NumCols() == 0 {
		return &ShapeError{Reason: "input is not a table"}
	}
	if t.NumRows() == 0 {
		return &ShapeError{Reason: "table is empty"}
	}
	if t.NumRows() < 2 {
		return &ShapeError{Reason: "table must have at least two rows to split"}
	}
	return nil
}

// distinctCoalescedCount counts distinct values after nulls coalesce to
// Unknown, the same dedup the split itself performs. A column of one value
// plus nulls therefore has two distinct entities, not one.
func distinctCoalescedCount(vals []table.Value) int {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[CoalesceUnknown(v).Key()] = struct{}{}
	}
	return len(seen)
}

// validateCategorical rejects columns that cannot serve as a one-to-many
// split target: multi-valued entries mean the caller wanted the many-to-many
// operation, and non-textual or all-null columns have nothing to normalize.
func validateCategorical(name string, vals []table.Value) error {
	allNull := true
	for _, v := range vals {
		switch v.Kind() {
		case table.KindList:
			return &WrongOperationError{Column: name}
		case table.KindNull:
			// counted below
		case table.KindString:
			allNull = false
		default:
			return &DegenerateColumnError{Column: name, Reason: "must be textual for a one-to-many split"}
		}
	}
	if allNull {
		return &DegenerateColumnError{Column: name, Reason: "contains only null values"}
	}
	return nil
}

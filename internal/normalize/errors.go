package normalize

import "fmt"

// ShapeError reports an input that is not a usable table: nil, zero columns,
// empty, or fewer than two rows.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid table shape: %s", e.Reason)
}

// ColumnNotFoundError reports a named column argument that does not exist on
// the input table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// DegenerateColumnError reports a target column on which the requested split
// is meaningless: non-textual, all-null, fully unique, or constant.
type DegenerateColumnError struct {
	Column string
	Reason string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// WrongOperationError reports a one-to-many split requested on a column that
// holds multi-valued entries. The caller should retry with SplitManyToMany.
type WrongOperationError struct {
	Column string
}

func (e *WrongOperationError) Error() string {
	return fmt.Sprintf("column %q contains multi-valued entries; use SplitManyToMany instead", e.Column)
}

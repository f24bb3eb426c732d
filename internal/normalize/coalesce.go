package normalize

import "github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"

// Unknown is the sentinel substituted for null categorical values before
// entity ids are assigned. A genuine "Unknown" string already present in the
// data collapses into the same entity row as true nulls; the two are not
// distinguished.
const Unknown = "Unknown"

// CoalesceUnknown replaces a null value with the Unknown sentinel.
// Non-null values pass through unchanged. Both splitters apply this before
// joining on categorical values, so a join key is never null.
func CoalesceUnknown(v table.Value) table.Value {
	if v.IsNull() {
		return table.String(Unknown)
	}
	return v
}

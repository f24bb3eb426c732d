package normalize

import (
	"strings"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// JunctionLeftColumn is the fixed name of the left foreign-key column on
// every junction table. The left key is the working table's title surrogate
// key, so the name does not vary with the column being split.
const JunctionLeftColumn = "title_id"

// explodedRow is one element of a multi-valued cell paired with the row's
// left key, produced by the explode pass.
type explodedRow struct {
	left  table.Value
	value table.Value
}

// SplitManyToMany extracts a (possibly delimiter-encoded) multi-valued
// column into a right-hand entity table and a junction table.
//
// leftKey must be a pre-existing unique row identifier; the splitter does not
// enforce uniqueness. If sep is non-empty, string values of rightCol are
// split on it with whitespace trimmed around each piece; list values pass
// through unchanged; null stays null and still yields one exploded row, so
// every input row is represented in the junction.
//
// Returned tables: left is the input minus rightCol, deduplicated on the
// remaining columns; right holds the distinct exploded values (nulls
// coalesced to Unknown) with dense ids in first-seen order; junction holds
// one row per distinct (title_id, "{rightCol}_id") pair.
func SplitManyToMany(t *table.Table, leftKey, rightCol, sep string) (left, right, junction *table.Table, err error) {
	if err := validateShape(t); err != nil {
		return nil, nil, nil, err
	}

	leftVals, ok := t.Column(leftKey)
	if !ok {
		return nil, nil, nil, &ColumnNotFoundError{Column: leftKey}
	}
	rightVals, ok := t.Column(rightCol)
	if !ok {
		return nil, nil, nil, &ColumnNotFoundError{Column: rightCol}
	}

	if allNull(leftVals) {
		return nil, nil, nil, &DegenerateColumnError{Column: leftKey, Reason: "contains only null values"}
	}
	if allNull(rightVals) {
		return nil, nil, nil, &DegenerateColumnError{Column: rightCol, Reason: "contains only null values"}
	}

	// Pass 1: normalize delimited strings into multi-valued entries.
	normalized := normalizeMultiValued(rightVals, sep)

	// Pass 2: explode each row into one row per element. A null or empty
	// entry yields a single null row so the row stays represented.
	exploded := explode(leftVals, normalized)

	// The uniqueness precondition is judged after exploding: a delimited or
	// list entry can be distinct as a whole while its elements repeat.
	if distinctExplodedCount(exploded) == len(exploded) {
		return nil, nil, nil, &DegenerateColumnError{Column: rightCol, Reason: "all values are unique; no many-to-many relationship to split"}
	}

	// Pass 3: dedup-and-key. Entity ids are dense, first-seen order.
	ids := make(map[string]int64)
	var rightNames []table.Value
	var rightIDs []table.Value
	junctionSeen := make(map[string]struct{})
	var junctionLeft []table.Value
	var junctionRight []table.Value

	for _, er := range exploded {
		cv := CoalesceUnknown(er.value)
		id, seen := ids[cv.Key()]
		if !seen {
			id = int64(len(ids) + 1)
			ids[cv.Key()] = id
			rightNames = append(rightNames, cv)
			rightIDs = append(rightIDs, table.Int(id))
		}

		pairKey := er.left.Key() + "\x1e" + cv.Key()
		if _, dup := junctionSeen[pairKey]; dup {
			continue
		}
		junctionSeen[pairKey] = struct{}{}
		junctionLeft = append(junctionLeft, er.left)
		junctionRight = append(junctionRight, table.Int(id))
	}

	reduced, err := t.DropColumn(rightCol)
	if err != nil {
		return nil, nil, nil, err
	}
	left = reduced.Distinct()

	right, err = table.New(
		table.Column{Name: rightCol, Values: rightNames},
		table.Column{Name: IDColumn, Values: rightIDs},
	)
	if err != nil {
		return nil, nil, nil, err
	}

	junction, err = table.New(
		table.Column{Name: JunctionLeftColumn, Values: junctionLeft},
		table.Column{Name: rightCol + "_id", Values: junctionRight},
	)
	if err != nil {
		return nil, nil, nil, err
	}

	return left, right, junction, nil
}

// normalizeMultiValued splits delimited string values on sep, trimming
// whitespace around each piece and dropping pieces that trim to nothing.
// Values that are already multi-valued, null, or non-string pass through
// unchanged. An empty sep disables splitting.
func normalizeMultiValued(vals []table.Value, sep string) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		s, isString := v.AsString()
		if sep == "" || !isString {
			out[i] = v
			continue
		}
		parts := strings.Split(s, sep)
		kept := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		out[i] = table.List(kept...)
	}
	return out
}

// explode expands each row into one explodedRow per element of its
// multi-valued entry. Scalar entries yield themselves; null and empty-list
// entries yield a single null, preserving at least one output row per input
// row.
func explode(leftVals, rightVals []table.Value) []explodedRow {
	out := make([]explodedRow, 0, len(rightVals))
	for i, v := range rightVals {
		elems, isList := v.AsList()
		switch {
		case isList && len(elems) > 0:
			for _, e := range elems {
				out = append(out, explodedRow{left: leftVals[i], value: table.String(e)})
			}
		case isList: // empty list
			out = append(out, explodedRow{left: leftVals[i], value: table.Null()})
		default:
			out = append(out, explodedRow{left: leftVals[i], value: v})
		}
	}
	return out
}

// allNull reports whether every value is null.
func allNull(vals []table.Value) bool {
	for _, v := range vals {
		if !v.IsNull() {
			return false
		}
	}
	return true
}

// distinctExplodedCount counts distinct non-null values among exploded rows.
func distinctExplodedCount(rows []explodedRow) int {
	seen := make(map[string]struct{}, len(rows))
	for _, er := range rows {
		if er.value.IsNull() {
			continue
		}
		seen[er.value.Key()] = struct{}{}
	}
	return len(seen)
}

package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDate
	KindList
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single typed cell. The zero value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	date time.Time
	list []string
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Int returns an integer value.
func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

// Date returns a date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, date: t}
}

// List returns a multi-valued entry holding the given elements.
func List(elems ...string) Value {
	return Value{kind: KindList, list: elems}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsString returns the string content and whether the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsInt returns the integer content and whether the value is an integer.
func (v Value) AsInt() (int64, bool) {
	return v.num, v.kind == KindInt
}

// AsDate returns the date content and whether the value is a date.
func (v Value) AsDate() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// AsList returns the list elements and whether the value is multi-valued.
func (v Value) AsList() ([]string, bool) {
	return v.list, v.kind == KindList
}

// Native returns the value as a plain Go type for database parameters:
// nil for null, string, int64, or time.Time. List values have no native
// form and return nil; they must be exploded before reaching a sink.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindDate:
		return v.date
	default:
		return nil
	}
}

// Key returns a representation usable as a deduplication map key.
// Distinct values of different kinds never collide.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "n|"
	case KindString:
		return "s|" + v.str
	case KindInt:
		return "i|" + strconv.FormatInt(v.num, 10)
	case KindDate:
		return "d|" + v.date.Format("2006-01-02")
	case KindList:
		return "l|" + strings.Join(v.list, "\x1f")
	default:
		return "?|"
	}
}

// Equal reports whether two values are identical in kind and content.
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}

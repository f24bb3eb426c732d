package pipeline

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string // ISO date, "" means not parseable
	}{
		{name: "netflix long form", input: "September 9, 2019", want: "2019-09-09"},
		{name: "short month", input: "Jan 15, 2024", want: "2024-01-15"},
		{name: "iso", input: "2021-07-01", want: "2021-07-01"},
		{name: "us slashes", input: "7/1/2021", want: "2021-07-01"},
		{name: "surrounding whitespace", input: "  2021-07-01 ", want: "2021-07-01"},
		{name: "empty", input: "", want: ""},
		{name: "garbage", input: "not a date", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if tt.want == "" {
				if ok {
					t.Fatalf("ParseDate(%q) = %v, want failure", tt.input, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.input)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseDateTwoDigitYearPivot(t *testing.T) {
	got, ok := ParseDate("1/2/46")
	if !ok {
		t.Fatal("ParseDate failed")
	}
	future := time.Now().Year() + TwoDigitYearPivot
	if got.Year() > future {
		t.Errorf("pivot not applied: year = %d", got.Year())
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{input: "2021", want: 2021, wantOK: true},
		{input: " 1,234 ", want: 1234, wantOK: true},
		{input: "-5", want: -5, wantOK: true},
		{input: "", wantOK: false},
		{input: "abc", wantOK: false},
		{input: "12.5", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ParseInt(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

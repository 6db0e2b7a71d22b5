package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestRecordValidate(t *testing.T) {
	good := Record{Date: "2025-09-14", Time: "08:30", Transaction: "Phở", Category: "Ăn sáng", Amount: "45000"}
	cases := []struct {
		name   string
		mutate func(r *Record)
		want   error
	}{
		{"valid", func(r *Record) {}, nil},
		{"sheet style date", func(r *Record) { r.Date = "14/09/2025" }, nil},
		{"empty amount", func(r *Record) { r.Amount = "" }, nil},
		{"grouped amount", func(r *Record) { r.Amount = "45.000" }, ErrInvalidAmount},
		{"bad date", func(r *Record) { r.Date = "yesterday" }, ErrInvalidDate},
		{"nothing entered", func(r *Record) { *r = Record{Date: "2025-09-14"} }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := good
			tc.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRecordValuesColumnOrder(t *testing.T) {
	r := Record{"d", "t", "x", "g", "s", "c", "1", "n"}
	want := []any{"d", "t", "x", "g", "s", "c", "1", "n"}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %v", got)
	}
	if len(Header) != len(want) {
		t.Fatalf("header has %d columns", len(Header))
	}
}

func TestRowsFromValues(t *testing.T) {
	values := [][]any{
		{"Date", "Time", "Transaction"},
		{"2025-09-01", "08:00", "Phở", "Needs", "Ăn uống", "Ăn sáng", float64(45000)},
		{"2025-09-02"},
		{"2025-09-03", "12:00", "Cơm", "Needs", "Ăn uống", "Ăn trưa", "50000", "office"},
	}
	rows := RowsFromValues(values)
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, want := range []int{2, 3, 4} {
		if rows[i].Index != want {
			t.Errorf("rows[%d].Index = %d, want %d", i, rows[i].Index, want)
		}
	}
	if rows[0].Amount != "45000" {
		t.Errorf("numeric cell rendered as %q", rows[0].Amount)
	}
	if rows[1].Transaction != "" || rows[1].Note != "" {
		t.Errorf("short row should leave trailing fields empty: %+v", rows[1])
	}
	if rows[2].Note != "office" {
		t.Errorf("note = %q", rows[2].Note)
	}
}

func TestRowsFromValuesEmpty(t *testing.T) {
	for _, values := range [][][]any{nil, {}, {{"Date"}}} {
		rows := RowsFromValues(values)
		if rows == nil || len(rows) != 0 {
			t.Fatalf("RowsFromValues(%v) = %#v, want empty slice", values, rows)
		}
	}
}

func TestDecodeValues(t *testing.T) {
	values, err := DecodeValues([]byte(`[["Date"],["2025-09-01", 12.5, null]]`))
	if err != nil {
		t.Fatalf("DecodeValues: %v", err)
	}
	rows := RowsFromValues(values)
	if rows[0].Time != "12.5" || rows[0].Transaction != "" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if _, err := DecodeValues([]byte(`{"error":"x"}`)); err == nil {
		t.Fatal("expected error for non-array body")
	}
}

func TestSortDescending(t *testing.T) {
	in := []int{3, 7, 2}
	got := SortDescending(in)
	if !reflect.DeepEqual(got, []int{7, 3, 2}) {
		t.Fatalf("SortDescending = %v", got)
	}
	if !reflect.DeepEqual(in, []int{3, 7, 2}) {
		t.Fatal("input was modified")
	}
}

func TestFindRow(t *testing.T) {
	rows := []Row{{Index: 2}, {Index: 5, Record: Record{Transaction: "x"}}}
	r, err := FindRow(rows, 5)
	if err != nil || r.Transaction != "x" {
		t.Fatalf("FindRow(5) = %+v, %v", r, err)
	}
	if _, err := FindRow(rows, 9); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("FindRow(9) err = %v", err)
	}
	if err := ValidateRowIndex(1); !errors.Is(err, ErrInvalidRowIndex) {
		t.Fatalf("ValidateRowIndex(1) = %v", err)
	}
}

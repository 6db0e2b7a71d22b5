package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// CellString renders a value decoded from a sheet response as text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// RecordFromCells maps up to eight cells onto a Record. Missing trailing
// cells stay empty.
func RecordFromCells(cells []any) Record {
	get := func(i int) string {
		if i < len(cells) {
			return CellString(cells[i])
		}
		return ""
	}
	return Record{
		Date:        get(0),
		Time:        get(1),
		Transaction: get(2),
		Group:       get(3),
		Subgroup:    get(4),
		Category:    get(5),
		Amount:      get(6),
		Note:        get(7),
	}
}

// RowsFromValues drops the header row and numbers the rest. The first data
// row gets index 2, so the element at position p after the header gets p+2.
func RowsFromValues(values [][]any) []Row {
	if len(values) <= 1 {
		return []Row{}
	}
	data := values[1:]
	rows := make([]Row, 0, len(data))
	for i, cells := range data {
		rows = append(rows, Row{Index: i + FirstDataRow, Record: RecordFromCells(cells)})
	}
	return rows
}

// DecodeValues parses a read-sheet response body, an array of arrays.
func DecodeValues(data []byte) ([][]any, error) {
	var values [][]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode sheet values: %w", err)
	}
	return values, nil
}

// SortDescending returns a copy of indices ordered highest first, the order
// in which row deletions must be applied so earlier ones do not shift later ones.
func SortDescending(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// FindRow returns the row with the given index.
func FindRow(rows []Row, index int) (Row, error) {
	for _, r := range rows {
		if r.Index == index {
			return r, nil
		}
	}
	return Row{}, fmt.Errorf("row %d: %w", index, ErrRowNotFound)
}

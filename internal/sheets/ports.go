package sheets

import (
	"context"
	"strings"

	"finsheet/internal/core"
)

// Target addresses the block of a spreadsheet that holds transactions.
type Target struct {
	SpreadsheetID string
	SheetName     string
	Range         string // e.g. "A:H"
}

// A1 returns the target in A1 notation, "Sheet!A:H".
func (t Target) A1() string {
	if t.SheetName == "" {
		return t.Range
	}
	return QuoteSheet(t.SheetName) + "!" + t.Range
}

// QuoteSheet wraps a sheet name in single quotes when A1 notation requires it.
func QuoteSheet(name string) string {
	plain := name != ""
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Ports for outbound adapters.
type (
	RowReader interface {
		// ReadAll returns every row of the target, header included.
		ReadAll(ctx context.Context, t Target) ([][]any, error)
	}

	RowWriter interface {
		// Append adds the record after the last row and returns the updated range.
		Append(ctx context.Context, t Target, r core.Record) (rowRef string, err error)
		// CloneRow appends a copy of the row at index.
		CloneRow(ctx context.Context, t Target, index int) (rowRef string, err error)
	}

	RowDeleter interface {
		DeleteRow(ctx context.Context, t Target, index int) error
		// DeleteRows removes rows in the order given. Callers pass indices
		// highest first.
		DeleteRows(ctx context.Context, t Target, indices []int) error
	}

	RowStore interface {
		RowReader
		RowWriter
		RowDeleter
	}
)

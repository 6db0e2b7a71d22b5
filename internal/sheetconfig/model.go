// Package sheetconfig is the registry of spreadsheets the tracker writes to.
// Each entry maps a config id to a spreadsheet tab, range and budget period.
package sheetconfig

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	ports "finsheet/internal/sheets"
)

type (
	SheetConfig struct {
		ID              string    `json:"id" bson:"_id"`
		UserID          string    `json:"userId" bson:"userId"`
		SpreadsheetID   string    `json:"spreadsheetId" bson:"spreadsheetId"`
		SpreadsheetName string    `json:"spreadsheetName" bson:"spreadsheetName"`
		SheetName       string    `json:"sheetName" bson:"sheetName"`
		Range           string    `json:"range" bson:"range"`
		Month           int       `json:"month" bson:"month"`
		Year            int       `json:"year" bson:"year"`
		CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
	}

	// Request is the body of POST /setup-sheet.
	Request struct {
		SpreadsheetURL  string `json:"spreadSheetUrl"`
		SpreadsheetName string `json:"spreadsheetName"`
		SheetName       string `json:"sheetName"`
		Range           string `json:"range"`
	}

	// Store persists sheet configs.
	Store interface {
		Save(ctx context.Context, c SheetConfig) (SheetConfig, error)
		Get(ctx context.Context, id string) (SheetConfig, error)
		FindBySpreadsheetID(ctx context.Context, spreadsheetID string) (SheetConfig, error)
		// ListByUser returns configs ordered by year then month, newest first.
		ListByUser(ctx context.Context, userID string) ([]SheetConfig, error)
	}
)

var (
	ErrNotFound             = errors.New("sheet config not found")
	ErrDuplicateSpreadsheet = errors.New("spreadsheet already configured")

	spreadsheetIDPattern = regexp.MustCompile(`https://docs\.google\.com/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	monthYearPattern     = regexp.MustCompile(`(\d+)/(\d{4})`)
)

// FullRange is the A1 range the config reads and appends to.
func (c SheetConfig) FullRange() string {
	return c.SheetName + "!" + c.Range
}

// Target addresses the config's transaction rows.
func (c SheetConfig) Target() ports.Target {
	return ports.Target{SpreadsheetID: c.SpreadsheetID, SheetName: c.SheetName, Range: c.Range}
}

// DisplayPeriod renders the budget period as "M/YYYY".
func (c SheetConfig) DisplayPeriod() string {
	return fmt.Sprintf("%d/%d", c.Month, c.Year)
}

// ExtractSpreadsheetID returns the id in a Google Sheets URL, or "".
func ExtractSpreadsheetID(url string) string {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractMonthYear reads the first "M/YYYY" in a spreadsheet name:
// "Chi tiêu 9/2025" gives 9, 2025.
func ExtractMonthYear(name string) (month, year int, err error) {
	m := monthYearPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, &ValidationError{Msg: "Cannot extract month/year from sheet name. Expected format: 'M/YYYY' or 'MM/YYYY'"}
	}
	month, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, &ValidationError{Msg: fmt.Sprintf("invalid month %q", m[1])}
	}
	year, _ = strconv.Atoi(m[2])
	return month, year, nil
}

// ValidationError is a problem with the caller's request, as opposed to a
// storage or connectivity failure.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// comparePeriod orders newest period first.
func comparePeriod(a, b SheetConfig) int {
	if a.Year != b.Year {
		return b.Year - a.Year
	}
	return b.Month - a.Month
}

package core

import (
	"errors"
	"strings"
	"time"
)

// Sheet columns, A through H.
const (
	ColDate        = "Date"
	ColTime        = "Time"
	ColTransaction = "Transaction"
	ColGroup       = "Group"
	ColSubgroup    = "Subgroup"
	ColCategory    = "Category"
	ColAmount      = "Amount"
	ColNote        = "Note"

	// FirstDataRow is the 1-based sheet row of the first transaction; row 1
	// is the header.
	FirstDataRow = 2
)

// Header is the first row of a transaction sheet.
var Header = []string{ColDate, ColTime, ColTransaction, ColGroup, ColSubgroup, ColCategory, ColAmount, ColNote}

type (
	// Record is one transaction as entered in the form and stored as a sheet
	// row. Field order is the column order and the canonical JSON order.
	Record struct {
		Date        string `json:"date"`
		Time        string `json:"time"`
		Transaction string `json:"transaction"`
		Group       string `json:"group"`
		Subgroup    string `json:"subgroup"`
		Category    string `json:"category"`
		Amount      string `json:"amount"`
		Note        string `json:"note"`
	}

	// Row is a Record read back from the sheet, addressed by the row index
	// the delete and clone operations use.
	Row struct {
		Index int
		Record
	}
)

var (
	ErrRowNotFound      = errors.New("row not found")
	ErrInvalidRowIndex  = errors.New("invalid row index")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
)

// Values returns the record as one sheet row.
func (r Record) Values() []any {
	return []any{r.Date, r.Time, r.Transaction, r.Group, r.Subgroup, r.Category, r.Amount, r.Note}
}

// Validate checks what the backend can not store sensibly. The form itself
// sends whatever the user typed.
func (r Record) Validate() error {
	if len(r.Transaction) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(r.Transaction) == "" && strings.TrimSpace(r.Category) == "" && r.Amount == "" {
		return ErrEmptyDescription
	}
	for _, c := range r.Amount {
		if c < '0' || c > '9' {
			return ErrInvalidAmount
		}
	}
	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			if _, err := time.Parse("02/01/2006", r.Date); err != nil {
				return ErrInvalidDate
			}
		}
	}
	return nil
}

// ValidateRowIndex rejects indices that point at or above the header row.
func ValidateRowIndex(index int) error {
	if index < FirstDataRow {
		return ErrInvalidRowIndex
	}
	return nil
}

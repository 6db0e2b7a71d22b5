package sheetconfig

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finsheet/internal/sheets"
	"finsheet/internal/sheets/memory"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0"

type failingReader struct{ err error }

func (f failingReader) ReadAll(context.Context, sheets.Target) ([][]any, error) {
	return nil, f.err
}

func validRequest() Request {
	return Request{
		SpreadsheetURL:  sheetURL,
		SpreadsheetName: "Chi tiêu 9/2025",
		SheetName:       "Transactions",
		Range:           "A:H",
	}
}

func TestExtractSpreadsheetID(t *testing.T) {
	tests := map[string]string{
		sheetURL: "1AbC-d_9",
		"https://docs.google.com/spreadsheets/d/xyz": "xyz",
		"http://docs.google.com/spreadsheets/d/xyz":  "",
		"https://example.com/d/xyz":                  "",
		"":                                           "",
	}
	for in, want := range tests {
		if got := ExtractSpreadsheetID(in); got != want {
			t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractMonthYear(t *testing.T) {
	tests := []struct {
		name      string
		wantMonth int
		wantYear  int
		wantErr   bool
	}{
		{"Chi tiêu 9/2025", 9, 2025, false},
		{"Budget 12/2024 v2", 12, 2024, false},
		{"03/2026", 3, 2026, false},
		{"Chi tiêu tháng 9", 0, 0, true},
		{"9/25", 0, 0, true},
	}
	for _, tt := range tests {
		m, y, err := ExtractMonthYear(tt.name)
		if tt.wantErr {
			if err == nil || !IsValidation(err) {
				t.Errorf("ExtractMonthYear(%q) err = %v, want validation error", tt.name, err)
			}
			continue
		}
		if err != nil || m != tt.wantMonth || y != tt.wantYear {
			t.Errorf("ExtractMonthYear(%q) = %d, %d, %v", tt.name, m, y, err)
		}
	}
}

func TestSheetConfigHelpers(t *testing.T) {
	c := SheetConfig{SpreadsheetID: "sid", SheetName: "Transactions", Range: "A:H", Month: 9, Year: 2025}
	if c.FullRange() != "Transactions!A:H" {
		t.Errorf("FullRange() = %q", c.FullRange())
	}
	if c.DisplayPeriod() != "9/2025" {
		t.Errorf("DisplayPeriod() = %q", c.DisplayPeriod())
	}
	if tg := c.Target(); tg.SpreadsheetID != "sid" || tg.A1() != "Transactions!A:H" {
		t.Errorf("Target() = %+v", tg)
	}
}

func TestService_ValidateAndSave(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, memory.New(), nil)
	fixed := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	cfg, err := svc.ValidateAndSave(context.Background(), validRequest(), "darian")
	if err != nil {
		t.Fatalf("ValidateAndSave: %v", err)
	}
	if cfg.ID == "" || cfg.SpreadsheetID != "1AbC-d_9" || cfg.Month != 9 || cfg.Year != 2025 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.UserID != "darian" || !cfg.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected metadata: %+v", cfg)
	}

	got, err := svc.Get(context.Background(), cfg.ID)
	if err != nil || got.ID != cfg.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	_, err = svc.ValidateAndSave(context.Background(), validRequest(), "darian")
	if !IsValidation(err) || !errors.Is(err, ErrDuplicateSpreadsheet) {
		t.Fatalf("duplicate err = %v", err)
	}
	if want := "A configuration for this spreadsheet already exists (ID: " + cfg.ID + ")"; err.Error() != want {
		t.Fatalf("duplicate message = %q", err.Error())
	}
}

func TestService_ValidateAndSaveRejections(t *testing.T) {
	readErr := errors.New("googleapi: Error 403: The caller does not have permission")
	tests := []struct {
		name    string
		reader  sheets.RowReader
		mutate  func(r *Request)
		wantMsg string
	}{
		{
			name:    "bad url",
			reader:  memory.New(),
			mutate:  func(r *Request) { r.SpreadsheetURL = "https://example.com" },
			wantMsg: "Invalid Google Sheets URL",
		},
		{
			name:    "sheet not shared",
			reader:  failingReader{err: readErr},
			mutate:  func(r *Request) {},
			wantMsg: "Make sure you have granted edit permission for this account \n",
		},
		{
			name:    "no period in name",
			reader:  memory.New(),
			mutate:  func(r *Request) { r.SpreadsheetName = "Chi tiêu" },
			wantMsg: "Cannot extract month/year from sheet name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(NewMemoryStore(), tt.reader, nil)
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.ValidateAndSave(context.Background(), req, "darian")
			if !IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("err = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}

	svc := NewService(NewMemoryStore(), failingReader{err: readErr}, nil)
	_, err := svc.ValidateAndSave(context.Background(), validRequest(), "darian")
	if !errors.Is(err, readErr) || !strings.HasSuffix(err.Error(), "Underlying error: "+readErr.Error()) {
		t.Fatalf("read failure not wrapped: %v", err)
	}
}

func TestService_GetMissing(t *testing.T) {
	svc := NewService(NewMemoryStore(), memory.New(), nil)
	for _, id := range []string{"", "nope"} {
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) err = %v", id, err)
		}
	}
}

func TestMemoryStore_ListByUserOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, c := range []SheetConfig{
		{ID: "a", UserID: "u", SpreadsheetID: "1", Month: 9, Year: 2025},
		{ID: "b", UserID: "u", SpreadsheetID: "2", Month: 12, Year: 2024},
		{ID: "c", UserID: "u", SpreadsheetID: "3", Month: 10, Year: 2025},
		{ID: "d", UserID: "other", SpreadsheetID: "4", Month: 1, Year: 2026},
	} {
		if _, err := store.Save(ctx, c); err != nil {
			t.Fatalf("Save(%s): %v", c.ID, err)
		}
	}
	list, err := store.ListByUser(ctx, "u")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	var ids []string
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Fatalf("order = %v", ids)
	}

	if _, err := store.Save(ctx, SheetConfig{ID: "e", SpreadsheetID: "1"}); !errors.Is(err, ErrDuplicateSpreadsheet) {
		t.Fatalf("duplicate Save err = %v", err)
	}
	if empty, _ := store.ListByUser(ctx, "nobody"); empty == nil || len(empty) != 0 {
		t.Fatalf("ListByUser(nobody) = %#v", empty)
	}
}

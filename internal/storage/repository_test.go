package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finsheet/internal/core"
	"finsheet/internal/sheetconfig"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func config(id, spreadsheetID string, month, year int, created time.Time) sheetconfig.SheetConfig {
	return sheetconfig.SheetConfig{
		ID:              id,
		UserID:          "darian",
		SpreadsheetID:   spreadsheetID,
		SpreadsheetName: "Chi tiêu",
		SheetName:       "Transactions",
		Range:           "A:H",
		Month:           month,
		Year:            year,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	first, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != 2 || second != first {
		t.Fatalf("versions = %d, %d; want 2, 2", first, second)
	}
}

func TestSheetConfigRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC)

	saved, err := repo.Save(ctx, config("c1", "sheet-1", 9, 2025, created))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Range != "A:H" || !saved.CreatedAt.Equal(created) {
		t.Fatalf("saved = %+v", saved)
	}

	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FullRange() != "Transactions!A:H" || got.Month != 9 || got.Year != 2025 {
		t.Fatalf("got = %+v", got)
	}

	byID, err := repo.FindBySpreadsheetID(ctx, "sheet-1")
	if err != nil || byID.ID != "c1" {
		t.Fatalf("FindBySpreadsheetID = %+v, %v", byID, err)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, sheetconfig.ErrNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}
	if _, err := repo.FindBySpreadsheetID(ctx, "missing"); !errors.Is(err, sheetconfig.ErrNotFound) {
		t.Fatalf("FindBySpreadsheetID missing err = %v", err)
	}
}

func TestSheetConfigDuplicateSpreadsheet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := repo.Save(ctx, config("c1", "sheet-1", 9, 2025, now)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := repo.Save(ctx, config("c2", "sheet-1", 10, 2025, now)); !errors.Is(err, sheetconfig.ErrDuplicateSpreadsheet) {
		t.Fatalf("duplicate err = %v", err)
	}

	// updating the same config keeps its spreadsheet
	updated := config("c1", "sheet-1", 11, 2025, now)
	if _, err := repo.Save(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.Get(ctx, "c1")
	if got.Month != 11 {
		t.Fatalf("month = %d, want 11", got.Month)
	}
}

func TestListByUserOrdersNewestPeriodFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, c := range []sheetconfig.SheetConfig{
		config("a", "s-a", 9, 2024, base),
		config("b", "s-b", 2, 2025, base),
		config("c", "s-c", 12, 2024, base),
		config("d", "s-d", 2, 2025, base.Add(time.Hour)),
	} {
		if _, err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save %s: %v", c.ID, err)
		}
	}
	other := config("e", "s-e", 1, 2026, base)
	other.UserID = "someone"
	if _, err := repo.Save(ctx, other); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	list, err := repo.ListByUser(ctx, "darian")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	var ids []string
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	want := []string{"d", "b", "c", "a"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	empty, err := repo.ListByUser(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListByUser(nobody) = %v, %v", empty, err)
	}
}

func TestRecordEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	appended := core.NewActivityEvent(core.EventAppended, "c1")
	appended.Record = &core.Record{Transaction: "Phở", Category: "Ăn sáng", Amount: "45000"}
	appended.SheetsRef = "Transactions!A5:H5"

	deleted := core.NewActivityEvent(core.EventDeleted, "c1")
	deleted.RowIndices = []int{7, 3, 2}
	deleted.OccurredAt = appended.OccurredAt.Add(time.Second)

	for _, e := range []core.ActivityEvent{appended, deleted} {
		stored, err := repo.RecordEvent(ctx, e)
		if err != nil || !stored {
			t.Fatalf("RecordEvent(%s) = %v, %v", e.Kind, stored, err)
		}
	}

	stored, err := repo.RecordEvent(ctx, appended)
	if err != nil || stored {
		t.Fatalf("redelivered event stored = %v, err = %v", stored, err)
	}
	if n, _ := repo.CountEvents(ctx); n != 2 {
		t.Fatalf("CountEvents = %d, want 2", n)
	}

	events, err := repo.ListEvents(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 || events[0].Kind != core.EventDeleted {
		t.Fatalf("events = %+v", events)
	}
	if got := events[0].RowIndices; len(got) != 3 || got[0] != 7 || got[2] != 2 {
		t.Fatalf("row indices = %v", got)
	}
	if events[1].Record == nil || events[1].Record.Category != "Ăn sáng" || events[1].SheetsRef != "Transactions!A5:H5" {
		t.Fatalf("appended event = %+v", events[1])
	}

	limited, _ := repo.ListEvents(ctx, "c1", 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d events", len(limited))
	}
}

package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"finsheet/internal/core"
	ports "finsheet/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu        sync.Mutex
	rows      [][]any
	appended  [][]any
	batches   []gsheet.BatchUpdateSpreadsheetRequest
	metaCalls int
	lastInput string
	failReads bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sid"
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == prefix:
		f.metaCalls++
		writeJSON(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Summary", "index": 0}},
			map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Transactions", "index": 1}},
		}})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batches = append(f.batches, req)
		writeJSON(w, map[string]any{"spreadsheetId": "sid"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		f.lastInput = r.URL.Query().Get("valueInputOption")
		writeJSON(w, map[string]any{"updates": map[string]any{"updatedRange": "Transactions!A9:H9"}})
	case r.Method == http.MethodGet && strings.HasPrefix(path, prefix+"/values/"):
		if f.failReads {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
			return
		}
		rng := strings.TrimPrefix(path, prefix+"/values/")
		if strings.HasSuffix(rng, "A3:H3") {
			writeJSON(w, map[string]any{"range": rng, "values": f.rows[2:3]})
			return
		}
		if strings.HasSuffix(rng, "A7:H7") {
			writeJSON(w, map[string]any{"range": rng})
			return
		}
		writeJSON(w, map[string]any{"range": rng, "values": f.rows})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{rows: [][]any{
		{"Date", "Time", "Transaction", "Group", "Subgroup", "Category", "Amount", "Note"},
		{"2025-09-01", "08:00", "Phở", "Needs", "Ăn uống", "Ăn sáng", "45000", ""},
		{"2025-09-02", "12:00", "Cơm", "Needs", "Ăn uống", "Ăn trưa", "50000", "office"},
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc), fake
}

var target = ports.Target{SpreadsheetID: "sid", SheetName: "Transactions", Range: "A:H"}

func TestClient_ReadAll(t *testing.T) {
	c, _ := newTestClient(t)
	values, err := c.ReadAll(context.Background(), target)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	rows := core.RowsFromValues(values)
	if len(rows) != 2 || rows[1].Index != 3 || rows[1].Note != "office" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestClient_ReadAllError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.failReads = true
	_, err := c.ReadAll(context.Background(), target)
	if err == nil || !strings.Contains(err.Error(), "read Transactions!A:H") {
		t.Fatalf("ReadAll err = %v", err)
	}
}

func TestClient_Append(t *testing.T) {
	c, fake := newTestClient(t)
	rec := core.Record{Date: "2025-09-14", Time: "19:30", Transaction: "Bún", Group: "Needs",
		Subgroup: "Ăn uống", Category: "Ăn tối", Amount: "40000", Note: "n"}

	ref, err := c.Append(context.Background(), target, rec)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "Transactions!A9:H9" {
		t.Errorf("ref = %q", ref)
	}
	if fake.lastInput != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", fake.lastInput)
	}
	if len(fake.appended) != 1 || fake.appended[0][2] != "Bún" || fake.appended[0][7] != "n" {
		t.Fatalf("appended = %v", fake.appended)
	}
}

func TestClient_CloneRow(t *testing.T) {
	c, fake := newTestClient(t)

	if _, err := c.CloneRow(context.Background(), target, 3); err != nil {
		t.Fatalf("CloneRow: %v", err)
	}
	if len(fake.appended) != 1 || fake.appended[0][2] != "Cơm" {
		t.Fatalf("appended = %v", fake.appended)
	}

	if _, err := c.CloneRow(context.Background(), target, 7); !errors.Is(err, core.ErrRowNotFound) {
		t.Fatalf("CloneRow(7) err = %v", err)
	}
	if _, err := c.CloneRow(context.Background(), target, 1); !errors.Is(err, core.ErrInvalidRowIndex) {
		t.Fatalf("CloneRow(1) err = %v", err)
	}
}

func TestClient_DeleteRowsKeepsOrderAndCachesSheetID(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.DeleteRows(context.Background(), target, []int{7, 3, 2}); err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}
	if err := c.DeleteRow(context.Background(), target, 5); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	if fake.metaCalls != 1 {
		t.Errorf("spreadsheet metadata fetched %d times", fake.metaCalls)
	}
	if len(fake.batches) != 2 {
		t.Fatalf("batches = %d", len(fake.batches))
	}
	reqs := fake.batches[0].Requests
	if len(reqs) != 3 {
		t.Fatalf("requests = %d", len(reqs))
	}
	for i, want := range []int64{6, 2, 1} {
		r := reqs[i].DeleteDimension.Range
		if r.SheetId != 42 || r.Dimension != "ROWS" || r.StartIndex != want || r.EndIndex != want+1 {
			t.Errorf("request %d = %+v", i, r)
		}
	}
}

func TestClient_DeleteRowsValidation(t *testing.T) {
	c, fake := newTestClient(t)
	if err := c.DeleteRows(context.Background(), target, nil); err != nil {
		t.Fatalf("empty DeleteRows: %v", err)
	}
	if err := c.DeleteRows(context.Background(), target, []int{4, 1}); !errors.Is(err, core.ErrInvalidRowIndex) {
		t.Fatalf("err = %v", err)
	}
	if len(fake.batches) != 0 {
		t.Fatal("no batch should be sent")
	}

	missing := target
	missing.SheetName = "Nope"
	if err := c.DeleteRow(context.Background(), missing, 2); err == nil || !strings.Contains(err.Error(), `sheet "Nope" not found`) {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{sheetIDs: map[string]int64{}}
	if _, err := c.ReadAll(context.Background(), target); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.Append(context.Background(), target, core.Record{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account","client_email":"bot@proj.iam.gserviceaccount.com"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := ServiceAccountEmail(Credentials{File: file}); got != "bot@proj.iam.gserviceaccount.com" {
		t.Errorf("ServiceAccountEmail(file) = %q", got)
	}
	if got := ServiceAccountEmail(Credentials{JSON: `{"client_email":"inline@x"}`, File: file}); got != "inline@x" {
		t.Errorf("inline JSON should win, got %q", got)
	}
	if got := ServiceAccountEmail(Credentials{}); got != "" {
		t.Errorf("ServiceAccountEmail(empty) = %q", got)
	}

	if _, err := New(context.Background(), Credentials{}, "app"); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("New err = %v", err)
	}
	if _, err := New(context.Background(), Credentials{File: filepath.Join(dir, "nope.json")}, "app"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package ui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"finsheet/internal/core"
)

type fakeRows struct {
	mu      sync.Mutex
	values  [][]any
	readErr error
	mutErr  error
	reads   int
	deleted [][]int
	cloned  []int
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRows) ReadSheet(context.Context, string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.values, f.readErr
}

func (f *fakeRows) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeRows) DeleteRow(_ context.Context, _ string, idx int) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, []int{idx})
	return "deleted", f.mutErr
}

func (f *fakeRows) DeleteRows(_ context.Context, _ string, idx []int) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, idx)
	return "deleted", f.mutErr
}

func (f *fakeRows) CloneRow(_ context.Context, _ string, idx int) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cloned = append(f.cloned, idx)
	return "cloned", f.mutErr
}

type answer struct {
	ok      bool
	prompts []string
}

func (a *answer) Confirm(p string) bool {
	a.prompts = append(a.prompts, p)
	return a.ok
}

func sampleValues() [][]any {
	return [][]any{
		{"Date", "Time", "Transaction", "Group", "Subgroup", "Category", "Amount", "Note"},
		{"2025-09-01", "08:00", "Phở <bò>", "Needs", "Ăn uống", "Ăn sáng", "45000", ""},
		{"01/09/2025", "12:00:00", "Cơm", "Needs", "Ăn uống", "Ăn trưa", float64(1234567), "office"},
		{"2025-09-03", "19:15", "Bún", "Needs", "Ăn uống", "Ăn tối", "", ""},
	}
}

func newList(t *testing.T, api RowsAPI, confirm Confirmer) *ListController {
	t.Helper()
	c, err := NewListController("cfg", api, confirm, nil)
	if err != nil {
		t.Fatalf("NewListController: %v", err)
	}
	return c
}

func TestNewListController_RequiresConfigID(t *testing.T) {
	if _, err := NewListController("", &fakeRows{}, nil, nil); !errors.Is(err, ErrMissingConfigID) {
		t.Fatalf("err = %v", err)
	}
}

func TestListController_LoadAndState(t *testing.T) {
	c := newList(t, &fakeRows{values: sampleValues()}, nil)
	view := &Recorder{}
	if err := c.Load(context.Background(), view); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ev := view.Events(); ev[0].Kind != EventShowLoading || ev[0].Message != LoadingListMessage || view.Loading() {
		t.Fatalf("loading indicator events = %v", ev)
	}

	st := c.State()
	if st.Empty || st.Error != "" || len(st.Rows) != 3 {
		t.Fatalf("state = %+v", st)
	}
	first, second, third := st.Rows[0], st.Rows[1], st.Rows[2]
	if first.Index != 2 || first.Order != 1 || first.Date != "01/09/2025" || first.Time != "08:00:00" || first.Amount != "45.000" {
		t.Errorf("first row = %+v", first)
	}
	if first.Transaction != "Phở <bò>" {
		t.Errorf("row text should stay raw for the template to escape, got %q", first.Transaction)
	}
	if second.Index != 3 || second.Date != "01/09/2025" || second.Time != "12:00:00" || second.Amount != "1.234.567" {
		t.Errorf("second row = %+v", second)
	}
	if third.Index != 4 || third.Amount != "" {
		t.Errorf("third row = %+v", third)
	}
}

func TestListController_EmptyAndError(t *testing.T) {
	api := &fakeRows{values: sampleValues()[:1]}
	c := newList(t, api, nil)
	_ = c.Load(context.Background(), &Recorder{})
	if st := c.State(); !st.Empty || len(st.Rows) != 0 {
		t.Fatalf("header-only sheet should render the placeholder: %+v", st)
	}

	api.values = sampleValues()
	_ = c.Load(context.Background(), &Recorder{})
	api.readErr = errors.New("HTTP error! status: 500")
	if err := c.Load(context.Background(), &Recorder{}); err == nil {
		t.Fatal("expected load error")
	}
	st := c.State()
	if st.Error != "Error loading transactions: HTTP error! status: 500" || len(st.Rows) != 0 {
		t.Fatalf("state = %+v", st)
	}
	if len(c.Rows()) != 3 {
		t.Fatal("rows of the last good load should be kept")
	}
}

func TestListController_Delete(t *testing.T) {
	api := &fakeRows{values: sampleValues()}
	confirm := &answer{ok: true}
	c := newList(t, api, confirm)
	_ = c.Load(context.Background(), &Recorder{})

	view := &Recorder{}
	if err := c.Delete(context.Background(), view, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !reflect.DeepEqual(api.deleted, [][]int{{3}}) {
		t.Fatalf("deleted = %v", api.deleted)
	}
	if confirm.prompts[0] != DeletePrompt {
		t.Fatalf("prompt = %q", confirm.prompts[0])
	}
	if api.reads != 2 {
		t.Fatalf("list should reload after delete, reads = %d", api.reads)
	}
	if last, _ := view.Last(); last.Message != DeletedMessage {
		t.Fatalf("last = %+v", last)
	}
	if view.Loading() || c.Guard() != Idle {
		t.Fatal("delete left the list busy")
	}
}

func TestListController_DeleteDeclined(t *testing.T) {
	api := &fakeRows{values: sampleValues()}
	c := newList(t, api, &answer{ok: false})
	if err := c.Delete(context.Background(), &Recorder{}, 3); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	if len(api.deleted) != 0 {
		t.Fatal("declined delete reached the API")
	}
}

func TestListController_DeleteFailureKeepsState(t *testing.T) {
	api := &fakeRows{values: sampleValues(), mutErr: errors.New("Error deleting row: permission denied")}
	c := newList(t, api, nil)
	_ = c.Load(context.Background(), &Recorder{})

	view := &Recorder{}
	if err := c.Delete(context.Background(), view, 2); err == nil {
		t.Fatal("expected error")
	}
	last, _ := view.Last()
	if last.Kind != EventFailure || last.Message != "Failed to delete transaction: Error deleting row: permission denied" {
		t.Fatalf("last = %+v", last)
	}
	if api.reads != 1 || len(c.State().Rows) != 3 {
		t.Fatal("failed delete should keep the stale list without reloading")
	}
}

func TestListController_DeleteSelectedSortsDescending(t *testing.T) {
	api := &fakeRows{values: sampleValues()}
	confirm := &answer{ok: true}
	c := newList(t, api, confirm)

	sel, err := ParseSelection([]string{"3", "7", "2"})
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	view := &Recorder{}
	if err := c.DeleteSelected(context.Background(), view, sel); err != nil {
		t.Fatalf("DeleteSelected: %v", err)
	}
	if !reflect.DeepEqual(api.deleted, [][]int{{7, 3, 2}}) {
		t.Fatalf("deleted = %v", api.deleted)
	}
	if confirm.prompts[0] != "Are you sure you want to delete 3 selected transaction(s)?" {
		t.Fatalf("prompt = %q", confirm.prompts[0])
	}
	if last, _ := view.Last(); last.Message != "3 transaction(s) deleted successfully!" {
		t.Fatalf("last = %+v", last)
	}
}

func TestListController_DeleteSelectedNothingChecked(t *testing.T) {
	api := &fakeRows{}
	c := newList(t, api, &answer{ok: true})
	view := &Recorder{}
	if err := c.DeleteSelected(context.Background(), view, Selection{}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v", err)
	}
	if last, _ := view.Last(); last.Message != NoSelectionMessage {
		t.Fatalf("last = %+v", last)
	}
}

func TestListController_Clone(t *testing.T) {
	api := &fakeRows{values: sampleValues()}
	c := newList(t, api, nil)
	_ = c.Load(context.Background(), &Recorder{})

	view := &Recorder{}
	if err := c.Clone(context.Background(), view, 4); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if !reflect.DeepEqual(api.cloned, []int{4}) {
		t.Fatalf("cloned = %v", api.cloned)
	}
	if last, _ := view.Last(); last.Message != ClonedMessage {
		t.Fatalf("last = %+v", last)
	}

	view = &Recorder{}
	if err := c.Clone(context.Background(), view, 99); !errors.Is(err, core.ErrRowNotFound) {
		t.Fatalf("err = %v", err)
	}
	if last, _ := view.Last(); last.Message != RowNotFoundMessage {
		t.Fatalf("last = %+v", last)
	}
	if len(api.cloned) != 1 {
		t.Fatal("unknown row reached the API")
	}
}

func TestListController_CloneAfterFailedLoad(t *testing.T) {
	api := &fakeRows{values: sampleValues()}
	c := newList(t, api, nil)
	ctx := context.Background()
	if err := c.Load(ctx, &Recorder{}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	api.readErr = errors.New("quota exceeded")
	if err := c.Load(ctx, &Recorder{}); err == nil {
		t.Fatal("expected load error")
	}

	view := &Recorder{}
	if err := c.Clone(ctx, view, 2); !errors.Is(err, core.ErrRowNotFound) {
		t.Fatalf("err = %v", err)
	}
	if last, _ := view.Last(); last.Message != RowNotFoundMessage {
		t.Fatalf("last = %+v", last)
	}
	if len(api.cloned) != 0 {
		t.Fatalf("cloned = %v, want no API call", api.cloned)
	}
}

func TestListController_MutationsAreSingleFlight(t *testing.T) {
	api := &fakeRows{values: sampleValues(), block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newList(t, api, nil)
	_ = c.Load(context.Background(), &Recorder{})

	done := make(chan error, 1)
	go func() { done <- c.Clone(context.Background(), &Recorder{}, 2) }()
	<-api.entered

	if err := c.Clone(context.Background(), &Recorder{}, 2); !errors.Is(err, ErrBusy) {
		t.Fatalf("second clone err = %v", err)
	}
	if err := c.Delete(context.Background(), &Recorder{}, 2); !errors.Is(err, ErrBusy) {
		t.Fatalf("delete during clone err = %v", err)
	}

	close(api.block)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first clone: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("clone did not finish")
	}
	if len(api.cloned) != 1 {
		t.Fatalf("cloned = %v", api.cloned)
	}
}

func TestSelection(t *testing.T) {
	rows := []RowView{{Index: 2}, {Index: 3}, {Index: 4}}
	sel := Selection{}
	if sel.Any() {
		t.Fatal("empty selection should disable bulk delete")
	}
	sel.SetAll(rows, true)
	if !reflect.DeepEqual(sel.Indices(), []int{4, 3, 2}) || !sel.Any() {
		t.Fatalf("indices = %v", sel.Indices())
	}
	sel.SetAll(rows, false)
	if sel.Any() {
		t.Fatal("clearing the master checkbox should clear every row")
	}
	if _, err := ParseSelection([]string{"2", "x"}); err == nil || !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions[*ListController](10, time.Minute)
	made := 0
	create := func() *ListController {
		made++
		c, _ := NewListController("cfg", &fakeRows{}, nil, nil)
		return c
	}
	id := NewSessionID()
	a, created := s.Get(id, create)
	if !created {
		t.Fatal("first Get should create")
	}
	b, created := s.Get(id, create)
	if created || a != b || made != 1 {
		t.Fatal("second Get should return the same controller")
	}
	s.Forget(id)
	if _, created := s.Get(id, create); !created || s.Len() != 1 {
		t.Fatal("Forget should drop the session")
	}
}

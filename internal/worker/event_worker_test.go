package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finsheet/internal/core"
)

type fakeRecorder struct {
	mu   sync.Mutex
	seen map[string]core.ActivityEvent
	err  error
}

func (f *fakeRecorder) RecordEvent(_ context.Context, e core.ActivityEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]core.ActivityEvent{}
	}
	if _, ok := f.seen[e.ID]; ok {
		return false, nil
	}
	f.seen[e.ID] = e
	return true, nil
}

func TestEventWorker_HandleEvent(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewEventWorker(rec, nil)
	ctx := context.Background()

	appended := core.NewActivityEvent(core.EventAppended, "c1")
	appended.Record = &core.Record{Transaction: "Phở"}
	deleted := core.NewActivityEvent(core.EventDeleted, "c1")
	deleted.RowIndices = []int{7, 3, 2}

	for _, e := range []core.ActivityEvent{appended, deleted, appended} {
		if err := w.HandleEvent(ctx, e); err != nil {
			t.Fatalf("HandleEvent(%s): %v", e.Kind, err)
		}
	}

	got := w.Stats()
	if got.Recorded != 2 || got.Duplicates != 1 || got.Failed != 0 {
		t.Fatalf("stats = %+v", got)
	}
	if len(rec.seen) != 2 {
		t.Fatalf("stored %d events, want 2", len(rec.seen))
	}
}

func TestEventWorker_StorageFailureIsReturned(t *testing.T) {
	dbErr := errors.New("database is locked")
	w := NewEventWorker(&fakeRecorder{err: dbErr}, nil)

	err := w.HandleEvent(context.Background(), core.NewActivityEvent(core.EventCloned, "c1"))
	if !errors.Is(err, dbErr) {
		t.Fatalf("err = %v, want wrapped storage error", err)
	}
	if w.Stats().Failed != 1 {
		t.Fatalf("stats = %+v", w.Stats())
	}
}

func TestEventWorker_ReportEveryStopsWithContext(t *testing.T) {
	w := NewEventWorker(&fakeRecorder{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.ReportEvery(ctx, 1_000_000)
		close(done)
	}()
	cancel()
	<-done
}

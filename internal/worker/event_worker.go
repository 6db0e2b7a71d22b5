// Package worker stores the activity events the API publishes.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"finsheet/internal/core"
	"finsheet/internal/log"
)

// EventRecorder persists activity events. RecordEvent reports false when the
// event was already stored.
type EventRecorder interface {
	RecordEvent(ctx context.Context, e core.ActivityEvent) (bool, error)
}

// Stats counts handled events since the worker started.
type Stats struct {
	Recorded   int64
	Duplicates int64
	Failed     int64
}

type EventWorker struct {
	store  EventRecorder
	logger *log.Logger

	recorded   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewEventWorker(store EventRecorder, logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{store: store, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent records one event. Its signature matches amqp.Handler.
func (w *EventWorker) HandleEvent(ctx context.Context, e core.ActivityEvent) error {
	stored, err := w.store.RecordEvent(ctx, e)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("record %s event %s: %w", e.Kind, e.ID, err)
	}
	if !stored {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping redelivered event", "event_id", e.ID)
		return nil
	}
	w.recorded.Add(1)

	args := []any{
		"event_id", e.ID,
		"kind", e.Kind,
		log.FieldConfigID, e.ConfigID,
	}
	switch e.Kind {
	case core.EventDeleted:
		args = append(args, log.FieldRowIndex, e.RowIndices, log.FieldRowCount, len(e.RowIndices))
	case core.EventAppended, core.EventCloned:
		args = append(args, log.FieldSheetsRef, e.SheetsRef)
	}
	w.logger.InfoContext(ctx, "Activity event recorded", args...)
	return nil
}

// Stats returns the current counters.
func (w *EventWorker) Stats() Stats {
	return Stats{
		Recorded:   w.recorded.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}

// ReportEvery logs the counters on each tick until ctx ends.
func (w *EventWorker) ReportEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.Stats()
			w.logger.InfoContext(ctx, "Worker stats",
				"recorded", s.Recorded,
				"duplicates", s.Duplicates,
				"failed", s.Failed)
		}
	}
}

// Package backend assembles the storage and messaging adapters selected by
// configuration.
package backend

import (
	"context"
	"errors"

	"finsheet/internal/core"
	"finsheet/internal/sheetconfig"
	ports "finsheet/internal/sheets"
)

// Publisher sends activity events to the worker.
type Publisher interface {
	Publish(ctx context.Context, e core.ActivityEvent) error
}

// CleanupFunc releases a resource opened by the factory.
type CleanupFunc func() error

// Result holds the assembled adapters. Events is nil when AMQP is not
// configured.
type Result struct {
	Rows           ports.RowStore
	Configs        sheetconfig.Store
	Events         Publisher
	ServiceAccount string

	cleanups []CleanupFunc
}

// Close runs every cleanup in reverse order of creation.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

func (r *Result) onClose(fn CleanupFunc) {
	r.cleanups = append(r.cleanups, fn)
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

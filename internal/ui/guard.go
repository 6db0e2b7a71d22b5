// Package ui holds the transaction form and transaction list controllers.
// Controllers own the page state and talk to the API. Rendering and
// notifications go through the view passed to each call.
package ui

import (
	"errors"
	"sync/atomic"
)

// State of a Guard.
type State int32

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

var (
	// ErrSubmitInFlight is returned when a submit is attempted while the
	// previous one is still outstanding. No request is made.
	ErrSubmitInFlight = errors.New("submit already in progress")
	// ErrBusy is the list counterpart of ErrSubmitInFlight.
	ErrBusy = errors.New("another operation is in progress")
)

// Guard admits one operation at a time. It is Submitting exactly while an
// operation holds it.
type Guard struct {
	state atomic.Int32
}

// TryAcquire moves Idle to Submitting and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.state.CompareAndSwap(int32(Idle), int32(Submitting))
}

// Release returns the guard to Idle.
func (g *Guard) Release() {
	g.state.Store(int32(Idle))
}

func (g *Guard) State() State {
	return State(g.state.Load())
}

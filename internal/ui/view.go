package ui

import "sync"

type (
	// View receives the side effects of a controller call: the blocking
	// loading indicator and user notifications.
	View interface {
		ShowLoading(message string)
		HideLoading()
		NotifySuccess(message string)
		NotifyFailure(message string)
	}

	// FormView also toggles the form's controls while a submit is pending.
	FormView interface {
		View
		SetControlsDisabled(disabled bool)
	}

	// Confirmer asks the user to confirm a destructive action.
	Confirmer interface {
		Confirm(prompt string) bool
	}
)

// Confirmed approves every prompt. Used when the browser already asked.
type Confirmed struct{}

func (Confirmed) Confirm(string) bool { return true }

// EventKind names a recorded view event.
type EventKind string

const (
	EventShowLoading EventKind = "show_loading"
	EventHideLoading EventKind = "hide_loading"
	EventDisable     EventKind = "disable"
	EventEnable      EventKind = "enable"
	EventSuccess     EventKind = "success"
	EventFailure     EventKind = "failure"
)

type Event struct {
	Kind    EventKind
	Message string
}

// Recorder is a FormView that keeps every event. The HTTP layer turns the
// recorded notifications into response headers.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ FormView = (*Recorder)(nil)

func (r *Recorder) add(kind EventKind, msg string) {
	r.mu.Lock()
	r.events = append(r.events, Event{Kind: kind, Message: msg})
	r.mu.Unlock()
}

func (r *Recorder) ShowLoading(message string)   { r.add(EventShowLoading, message) }
func (r *Recorder) HideLoading()                 { r.add(EventHideLoading, "") }
func (r *Recorder) NotifySuccess(message string) { r.add(EventSuccess, message) }
func (r *Recorder) NotifyFailure(message string) { r.add(EventFailure, message) }

func (r *Recorder) SetControlsDisabled(disabled bool) {
	if disabled {
		r.add(EventDisable, "")
		return
	}
	r.add(EventEnable, "")
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent success or failure notification.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if k := r.events[i].Kind; k == EventSuccess || k == EventFailure {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// Loading reports whether the indicator is currently shown.
func (r *Recorder) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	depth := 0
	for _, e := range r.events {
		switch e.Kind {
		case EventShowLoading:
			depth = 1
		case EventHideLoading:
			depth = 0
		}
	}
	return depth > 0
}

package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a mutation applied to a transaction sheet.
type EventKind string

const (
	EventAppended EventKind = "appended"
	EventDeleted  EventKind = "deleted"
	EventCloned   EventKind = "cloned"
)

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventAppended, EventDeleted, EventCloned:
		return true
	}
	return false
}

// ActivityEvent records a successful sheet mutation. The API publishes one per
// mutation and the worker stores them; ID makes redelivery harmless.
type ActivityEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	ConfigID   string    `json:"configId"`
	RowIndices []int     `json:"rowIndices,omitempty"`
	Record     *Record   `json:"record,omitempty"`
	SheetsRef  string    `json:"sheetsRef,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewActivityEvent stamps a fresh id and the current time.
func NewActivityEvent(kind EventKind, configID string) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		ConfigID:   configID,
		OccurredAt: time.Now().UTC(),
	}
}

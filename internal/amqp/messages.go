package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"finsheet/internal/core"
)

var (
	ErrMissingEventID = errors.New("event id is required")
	ErrUnknownKind    = errors.New("unknown event kind")
)

// EncodeEvent serializes an activity event as a message body.
func EncodeEvent(e core.ActivityEvent) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses and checks a message body.
func DecodeEvent(data []byte) (core.ActivityEvent, error) {
	var e core.ActivityEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return core.ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.ID == "" {
		return core.ActivityEvent{}, ErrMissingEventID
	}
	if !e.Kind.Valid() {
		return core.ActivityEvent{}, fmt.Errorf("%w %q", ErrUnknownKind, e.Kind)
	}
	return e, nil
}

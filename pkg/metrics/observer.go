package metrics

import "time"

// Event names recorded by the streaming client.
const (
	EventSessionConnect  = "session_connect"
	EventSessionComplete = "session_complete"
	EventFrameSent       = "frame_sent"
	EventEOFSent         = "eof_sent"
	EventSessionError    = "session_error"
)

type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// Observer receives client-side metrics events. Implementations must be safe
// for concurrent use; the sender and receiver activities both record.
type Observer interface {
	RecordEvent(ev Event)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}

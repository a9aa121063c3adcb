// Package orchestrator implements the top-level supervisor loop
// (spec.md §4.7): it owns the Idle→activity→Idle cycle, the
// intervention poller, the UI status bus, and the optional WebSocket
// control surface (§6.1/§6.2).
package orchestrator

import "sync/atomic"

// EventType names a status transition the UI status bus publishes
// (spec.md §6.2).
type EventType string

const (
	EventConnected       EventType = "connected"
	EventSystemReady     EventType = "system_ready"
	EventWakewordDetected EventType = "wakeword_detected"
	EventSTTFinal        EventType = "stt_final"
	EventPipelineStopped EventType = "pipeline_stopped"
	EventError           EventType = "error"
)

// StatusSnapshot is the last-writer-wins view of the running pipeline
// a GUI collaborator polls (spec.md §3's "UI Status Snapshot", §6.2).
type StatusSnapshot struct {
	Event             EventType
	Active            bool
	SttActive         bool
	Language          string
	WakewordInitialized bool
	WakewordRunning   bool
	Text              string // populated for EventSTTFinal
	Message           string // populated for EventError
}

// StatusBus publishes non-blocking, last-writer-wins snapshots: readers
// always see the most recent Publish, never a queue of historical
// ones, matching spec.md §4.7's "non-blocking, last-writer-wins
// snapshot consumed by the GUI polling loop."
type StatusBus struct {
	current atomic.Pointer[StatusSnapshot]
}

// NewStatusBus returns a bus seeded with a zero-value snapshot.
func NewStatusBus() *StatusBus {
	b := &StatusBus{}
	b.current.Store(&StatusSnapshot{})
	return b
}

// Publish replaces the current snapshot. Safe for concurrent callers;
// never blocks.
func (b *StatusBus) Publish(s StatusSnapshot) {
	b.current.Store(&s)
}

// Snapshot returns the most recently published snapshot.
func (b *StatusBus) Snapshot() StatusSnapshot {
	return *b.current.Load()
}

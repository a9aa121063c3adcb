package wakeword

import (
	"context"
	"sync"
)

// MockDetector is a hand-rolled test double satisfying the same
// Start/Pause/Resume/Stop lifecycle as Detector, without any ONNX
// dependency. Fire triggers onWake as if the wake phrase had been
// detected.
type MockDetector struct {
	mu      sync.Mutex
	onWake  func()
	paused  bool
	running bool
	done    chan struct{}
	starts  int
}

// NewMockDetector creates an idle MockDetector.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Start blocks until ctx is cancelled or Stop is called.
func (m *MockDetector) Start(ctx context.Context, frames <-chan []int16, onWake func()) error {
	m.mu.Lock()
	m.onWake = onWake
	m.running = true
	m.starts++
	m.done = make(chan struct{})
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		close(m.done)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-frames:
			if !ok {
				return nil
			}
		}
	}
}

// Fire simulates a wake-word detection, invoking onWake if not paused.
func (m *MockDetector) Fire() {
	m.mu.Lock()
	paused := m.paused
	cb := m.onWake
	m.mu.Unlock()
	if !paused && cb != nil {
		cb()
	}
}

func (m *MockDetector) Pause()  { m.mu.Lock(); m.paused = true; m.mu.Unlock() }
func (m *MockDetector) Resume() { m.mu.Lock(); m.paused = false; m.mu.Unlock() }

// Starts reports how many times Start has been called, so a test can
// confirm the caller restarted the watcher for another wake cycle.
func (m *MockDetector) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Stop is a no-op; callers cancel the context passed to Start.
func (m *MockDetector) Stop() {}

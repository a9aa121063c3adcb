package tts

import (
	"context"
	"sync"
)

// MockProvider is an in-memory StreamingProvider for tests: it
// synthesizes deterministic silence chunks instead of calling a vendor.
type MockProvider struct {
	mu          sync.Mutex
	chunks      [][]byte
	aborted     bool
	Synthesized []string
}

func NewMockProvider(chunks ...[]byte) *MockProvider {
	if len(chunks) == 0 {
		chunks = [][]byte{{0, 0, 0, 0}}
	}
	return &MockProvider{chunks: chunks}
}

func (m *MockProvider) Name() string { return "mock-tts" }

func (m *MockProvider) StreamSynthesize(ctx context.Context, text, voice, lang string, onChunk OnChunk) error {
	m.mu.Lock()
	m.Synthesized = append(m.Synthesized, text)
	m.aborted = false
	chunks := m.chunks
	m.mu.Unlock()

	for _, c := range chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.mu.Lock()
		aborted := m.aborted
		m.mu.Unlock()
		if aborted {
			return nil
		}
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockProvider) Abort(ctx context.Context) error {
	m.mu.Lock()
	m.aborted = true
	m.mu.Unlock()
	return nil
}

var _ StreamingProvider = (*MockProvider)(nil)

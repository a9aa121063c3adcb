package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

// MockProvider is an in-memory StreamingProvider for tests: it returns
// a scripted reply (cycling through the script, or "okay" when none was
// given) token by token, split on whitespace.
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	next    int
	Seen    [][]dialog.Message
}

func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{replies: replies}
}

func (m *MockProvider) Name() string { return "mock-llm" }

func (m *MockProvider) StreamChat(ctx context.Context, messages []dialog.Message, onToken OnToken) error {
	m.mu.Lock()
	m.Seen = append(m.Seen, messages)
	reply := m.reply()
	m.mu.Unlock()

	for _, tok := range strings.Fields(reply) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := onToken(tok + " "); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockProvider) reply() string {
	if len(m.replies) == 0 {
		return "okay"
	}
	r := m.replies[m.next%len(m.replies)]
	m.next++
	return r
}

var _ StreamingProvider = (*MockProvider)(nil)

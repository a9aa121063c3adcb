package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

func TestMockProviderCyclesScriptedReplies(t *testing.T) {
	m := NewMockProvider("hello there", "goodbye now")

	var first, second string
	m.StreamChat(context.Background(), nil, func(tok string) error { first += tok; return nil })
	m.StreamChat(context.Background(), nil, func(tok string) error { second += tok; return nil })

	if strings.TrimSpace(first) != "hello there" {
		t.Fatalf("unexpected first reply: %q", first)
	}
	if strings.TrimSpace(second) != "goodbye now" {
		t.Fatalf("unexpected second reply: %q", second)
	}
	if len(m.Seen) != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", len(m.Seen))
	}
}

func TestMockProviderDefaultReply(t *testing.T) {
	m := NewMockProvider()
	var got string
	err := m.StreamChat(context.Background(), []dialog.Message{{Role: dialog.RoleUser, Content: "hi"}}, func(tok string) error {
		got += tok
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(got) != "okay" {
		t.Fatalf("expected default reply 'okay', got %q", got)
	}
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

func TestGroqLLMStreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello from groq\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	l := &GroqLLM{apiKey: "test-key", url: server.URL, model: "llama3-70b"}

	var got string
	err := l.StreamChat(context.Background(), []dialog.Message{{Role: dialog.RoleUser, Content: "hi"}}, func(tok string) error {
		got += tok
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello from groq" {
		t.Fatalf("expected 'hello from groq', got %q", got)
	}
	if l.Name() != "groq-llm" {
		t.Fatalf("unexpected name %q", l.Name())
	}
}

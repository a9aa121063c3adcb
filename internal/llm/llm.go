// Package llm implements the Dialog/LLM Session (spec §4.5): given a
// bounded rolling message history, stream a reply token by token so TTS
// can begin speaking before generation finishes.
package llm

import (
	"context"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

// OnToken receives one generated token (or token-ish chunk) at a time,
// in order. Returning an error (e.g. errkind.ErrTermination from an
// upstream callback chain) aborts generation.
type OnToken func(token string) error

// Provider is the common capability every LLM vendor exposes.
type Provider interface {
	Name() string
}

// BatchProvider produces a complete reply in one round trip.
type BatchProvider interface {
	Provider
	Complete(ctx context.Context, messages []dialog.Message) (string, error)
}

// StreamingProvider is the fixed capability interface spec §6.3
// requires: stream_chat(messages, on_token), blocking until the model
// finishes, ctx is cancelled, or onToken propagates an error.
type StreamingProvider interface {
	Provider
	StreamChat(ctx context.Context, messages []dialog.Message, onToken OnToken) error
}

package llm

import (
	"context"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

// BatchAdapter generalizes a BatchProvider (one round trip, no token
// streaming) to the StreamingProvider contract by delivering the whole
// reply as a single onToken call. Used for vendors without an SSE
// streaming endpoint (e.g. Google's generateContent).
type BatchAdapter struct {
	batch BatchProvider
}

func NewBatchAdapter(batch BatchProvider) *BatchAdapter {
	return &BatchAdapter{batch: batch}
}

func (a *BatchAdapter) Name() string { return a.batch.Name() }

func (a *BatchAdapter) StreamChat(ctx context.Context, messages []dialog.Message, onToken OnToken) error {
	text, err := a.batch.Complete(ctx, messages)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return onToken(text)
}

var _ StreamingProvider = (*BatchAdapter)(nil)

package stt

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/pkg/audio"
)

// BatchAdapter generalizes a BatchProvider (groq/openai/assemblyai, one
// HTTP round trip per utterance) to the StreamingProvider contract: it
// accumulates frames until the source ends, wraps the accumulated PCM in
// a WAV container, and delivers a single final transcript. This is the
// "single_utterance" path; interim results are never produced by a
// batch vendor, matching spec §4.3's allowance that interim_results is
// a best-effort hint, not a guarantee.
type BatchAdapter struct {
	batch BatchProvider
	log   logging.Logger
}

// NewBatchAdapter wraps batch as a StreamingProvider.
func NewBatchAdapter(batch BatchProvider, log logging.Logger) *BatchAdapter {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	return &BatchAdapter{batch: batch, log: log}
}

func (a *BatchAdapter) Name() string { return a.batch.Name() }

// StreamRecognize accumulates frames until the channel closes or ctx is
// cancelled, then performs one retried batch Transcribe call.
func (a *BatchAdapter) StreamRecognize(ctx context.Context, frames <-chan []int16, sampleRate int, onTranscript OnTranscript, interimResults, singleUtterance bool) error {
	var samples []int16
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				goto transcribe
			}
			samples = append(samples, frame...)
		}
	}

transcribe:
	if len(samples) == 0 {
		return nil
	}
	pcm := samplesToPCM(samples)
	wav := audio.NewWavBuffer(pcm, sampleRate)

	var text string
	retry := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	err := backoff.Retry(func() error {
		t, err := a.batch.Transcribe(ctx, wav, "")
		if err != nil {
			a.log.Warn("stt batch adapter: transcribe attempt failed: %v", err)
			return errkind.WithKind(err, errkind.VendorTransient)
		}
		text = t
		return nil
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		return errkind.WithKind(err, errkind.VendorFatal)
	}
	if text == "" {
		return nil
	}
	return onTranscript(Transcript{Text: text, IsFinal: true, Confidence: 1.0})
}

func samplesToPCM(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

var _ StreamingProvider = (*BatchAdapter)(nil)

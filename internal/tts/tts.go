// Package tts implements the TTS Streamer (spec §4.4): synthesize text
// to a lazy sequence of PCM chunks, playable as they arrive, abortable
// mid-utterance on user barge-in or termination.
package tts

import "context"

// OnChunk receives one PCM chunk at a time, in order.
type OnChunk func(chunk []byte) error

// Provider is the common capability every TTS vendor exposes.
type Provider interface {
	Name() string
}

// StreamingProvider is the fixed capability interface spec §6.3 requires:
// stream_synthesize(text, voice, lang, on_chunk), blocking until the
// utterance completes, ctx is cancelled, or onChunk propagates an error.
// Abort additionally lets the orchestrator cut a live synthesis short
// (e.g. a vendor-side cancel message) without waiting for ctx to be
// observed by the network layer.
type StreamingProvider interface {
	Provider
	StreamSynthesize(ctx context.Context, text, voice, lang string, onChunk OnChunk) error
	Abort(ctx context.Context) error
}

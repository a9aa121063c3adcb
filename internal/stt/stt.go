// Package stt implements the STT Streamer (spec §4.3): given a PCM
// frame source and a transcript callback, streams interim and final
// transcripts until the frame source ends, a single-utterance final
// arrives, or the vendor closes the stream.
package stt

import (
	"context"
	"errors"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
)

// Transcript is one recognizer result.
type Transcript struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// OnTranscript is invoked in-order on the calling goroutine. Per spec
// §4.3's exception propagation rule: if it returns errkind.ErrTermination
// (wrapped or not), that error must propagate out of StreamRecognize so
// activity code can unwind cleanly. Any other error is logged by the
// caller and the stream continues.
type OnTranscript func(t Transcript) error

// Provider is the common capability every STT vendor exposes.
type Provider interface {
	Name() string
}

// BatchProvider transcribes a complete audio buffer in one round trip.
type BatchProvider interface {
	Provider
	Transcribe(ctx context.Context, audioPCM []byte, lang string) (string, error)
}

// StreamingProvider is the fixed capability interface spec §6.3
// requires: stream_recognize(frames, on_transcript, interim_results,
// single_utterance), blocking.
type StreamingProvider interface {
	Provider
	StreamRecognize(ctx context.Context, frames <-chan []int16, sampleRate int, onTranscript OnTranscript, interimResults, singleUtterance bool) error
}

// ErrEmptyTranscription names a batch/stream call that produced no
// usable text. No provider in this package returns it: an empty result
// is reported as no transcript and a nil error.
var ErrEmptyTranscription = errors.New("stt: empty transcription")

// IsTermination reports whether err is the cooperative termination
// signal a transcript callback raised.
func IsTermination(err error) bool { return errkind.IsTermination(err) }

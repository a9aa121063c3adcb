package activity

import (
	"context"
	"sync"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
)

// fakeAudio is an in-memory AudioIO standing in for a real Fabric in
// tests: capture handles are backed by a plain channel the test feeds
// directly, and playback just drains the chunk channel and records what
// was spoken.
type fakeAudio struct {
	mu       sync.Mutex
	frames   chan audiofabric.Frame
	handle   *audiofabric.CaptureHandle
	played   [][]byte
	playedTo []string
	busy     bool

	// playFileDelay, if set, is observed by PlayFile so meditation-style
	// races between playback and a concurrent listener are deterministic
	// in tests.
	playFileDelay func(ctx context.Context) error
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{frames: make(chan audiofabric.Frame, 32)}
}

func (f *fakeAudio) OpenCapture(frameSize int, allowDrop bool) (*audiofabric.CaptureHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return nil, audiofabric.ErrDeviceBusy
	}
	f.handle = audiofabric.NewTestCaptureHandle(frameSize, 16000, f.frames)
	f.busy = true
	return f.handle, nil
}

func (f *fakeAudio) CloseCapture(h *audiofabric.CaptureHandle) {
	if h == nil {
		return
	}
	h.Close()
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *fakeAudio) Frames(h *audiofabric.CaptureHandle) <-chan audiofabric.Frame {
	return f.frames
}

func (f *fakeAudio) Mute(h *audiofabric.CaptureHandle)   {}
func (f *fakeAudio) Unmute(h *audiofabric.CaptureHandle) {}

func (f *fakeAudio) PlayPCMStream(ctx context.Context, chunks <-chan []byte, useNudgeDelays bool, cfg audiofabric.Config) error {
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			f.mu.Lock()
			f.played = append(f.played, chunk)
			f.mu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *fakeAudio) PlayFile(ctx context.Context, path string, useNudgeDelays bool, cfg audiofabric.Config) error {
	f.mu.Lock()
	f.playedTo = append(f.playedTo, path)
	delay := f.playFileDelay
	f.mu.Unlock()
	if delay != nil {
		return delay(ctx)
	}
	return nil
}

// send pushes a final transcript's worth of synthetic PCM into the open
// capture handle; activities only care about STT's transcript
// callback, not the raw samples, so a single tiny frame is enough to
// drive pcmFrames' forwarding loop.
func (f *fakeAudio) send(ctx context.Context, samples []int16) {
	select {
	case f.frames <- audiofabric.Frame{Samples: samples, SampleRate: 16000}:
	case <-ctx.Done():
	}
}

var _ AudioIO = (*fakeAudio)(nil)

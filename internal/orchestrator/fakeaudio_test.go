package orchestrator

import (
	"context"
	"sync"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
)

// fakeAudio is a minimal in-memory activity.AudioIO for orchestrator
// tests: capture handles share one caller-fed frames channel, playback
// just drains whatever it's given.
type fakeAudio struct {
	mu     sync.Mutex
	frames chan audiofabric.Frame
	busy   bool
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
	f.busy = true
	return audiofabric.NewTestCaptureHandle(frameSize, 16000, f.frames), nil
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

func (f *fakeAudio) Frames(h *audiofabric.CaptureHandle) <-chan audiofabric.Frame { return f.frames }
func (f *fakeAudio) Mute(h *audiofabric.CaptureHandle)                            {}
func (f *fakeAudio) Unmute(h *audiofabric.CaptureHandle)                         {}

func (f *fakeAudio) PlayPCMStream(ctx context.Context, chunks <-chan []byte, useNudgeDelays bool, cfg audiofabric.Config) error {
	for {
		select {
		case _, ok := <-chunks:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *fakeAudio) PlayFile(ctx context.Context, path string, useNudgeDelays bool, cfg audiofabric.Config) error {
	return nil
}

// send pushes a synthetic frame, waking anything reading Frames(h).
func (f *fakeAudio) send(ctx context.Context, samples []int16) {
	select {
	case f.frames <- audiofabric.Frame{Samples: samples, SampleRate: 16000}:
	case <-ctx.Done():
	}
}

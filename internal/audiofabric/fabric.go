// Package audiofabric implements the Audio I/O Fabric (spec §4.1): one
// capture stream and one playback path, mute discipline around any
// core-originated playback, and scoped, one-owner resource release.
// Device binding is malgo (github.com/gen2brain/malgo), grounded on the
// duplex wiring in the teacher's cmd/agent/main.go.
package audiofabric

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/pkg/audio"
)

// Frame is an immutable buffer of 16-bit little-endian mono samples at
// the Fabric's declared sample rate.
type Frame struct {
	Samples    []int16
	SampleRate int
}

var (
	// ErrDeviceBusy is returned by OpenCapture when a capture handle is
	// already open.
	ErrDeviceBusy = errors.New("audiofabric: capture device busy")
	// ErrDeviceUnavailable is returned when the OS refuses to open the
	// device.
	ErrDeviceUnavailable = errors.New("audiofabric: capture device unavailable")
	// ErrPlaybackFailed covers a failed play_file / play_pcm_stream call.
	ErrPlaybackFailed = errors.New("audiofabric: playback failed")
)

// CaptureHandle is a scoped resource representing one open capture
// session. Exclusively owned by one caller; Close is safe to call more
// than once and guarantees the OS device is released.
type CaptureHandle struct {
	frames     chan Frame
	muted      atomic.Bool
	closeOnce  sync.Once
	closed     chan struct{}
	allowDrop  bool // wake-word mode: producer may discard under pressure
	frameSize  int
	sampleRate int
}

// NewTestCaptureHandle builds a CaptureHandle backed by the given
// frames channel, for collaborators (and their tests) that need to
// stand in for a real Fabric without an audio device — the caller
// retains frames and feeds it directly.
func NewTestCaptureHandle(frameSize, sampleRate int, frames chan Frame) *CaptureHandle {
	return &CaptureHandle{
		frames:     frames,
		closed:     make(chan struct{}),
		frameSize:  frameSize,
		sampleRate: sampleRate,
	}
}

// Closed reports whether Close has been called.
func (h *CaptureHandle) Closed() bool {
	select {
	case <-h.closed:
		return true
	default:
		return false
	}
}

// Close releases the handle. Safe to call multiple times.
func (h *CaptureHandle) Close() {
	h.closeOnce.Do(func() {
		close(h.closed)
	})
}

// Fabric owns the one process-wide capture handle and serializes
// playback. Construct one per process.
type Fabric struct {
	log        logging.Logger
	sampleRate int
	channels   int

	mctx   *malgo.AllocatedContext
	device *malgo.Device

	mu     sync.Mutex
	handle *CaptureHandle

	playbackMu sync.Mutex

	playMu       sync.Mutex
	playBuf      []byte
	playFinal    bool
	playDrained  chan struct{}
	lastPlayedAt time.Time
}

// Config controls nudge framing delays (spec §4.1 play_pcm_stream) and
// the mute discipline around a single playback call.
type Config struct {
	SampleRate    int
	Channels      int
	NudgePreDelay  time.Duration
	NudgePostDelay time.Duration

	// KeepCaptureUnmuted skips the default mute-around-playback
	// discipline (invariant 3, §3.2). Meditation needs this: its
	// audio-intent recognizer listens for a termination utterance while
	// the guided-meditation audio is still playing (§4.6.f), so the
	// capture handle must stay live through the call.
	KeepCaptureUnmuted bool
}

// New initializes the malgo device in duplex mode and returns a Fabric
// ready to open a capture handle.
func New(cfg Config, log logging.Logger) (*Fabric, error) {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}

	f := &Fabric{
		log:        log,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init malgo context: %v", ErrDeviceUnavailable, err)
	}
	f.mctx = mctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: f.onSamples,
	})
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("%w: init malgo device: %v", ErrDeviceUnavailable, err)
	}
	f.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, fmt.Errorf("%w: start malgo device: %v", ErrDeviceUnavailable, err)
	}

	return f, nil
}

// Shutdown releases the underlying audio device. Call once at process
// exit, after every CaptureHandle has been closed.
func (f *Fabric) Shutdown() {
	if f.device != nil {
		f.device.Uninit()
	}
	if f.mctx != nil {
		f.mctx.Uninit()
	}
}

// OpenCapture opens the single process-wide capture handle. Returns
// ErrDeviceBusy if one is already open.
func (f *Fabric) OpenCapture(frameSize int, allowDrop bool) (*CaptureHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.handle != nil && !f.handle.Closed() {
		return nil, ErrDeviceBusy
	}

	h := &CaptureHandle{
		frames:     make(chan Frame, 32),
		closed:     make(chan struct{}),
		allowDrop:  allowDrop,
		frameSize:  frameSize,
		sampleRate: f.sampleRate,
	}
	f.handle = h
	f.log.Debug("audiofabric: capture handle opened (frame_size=%d allow_drop=%v)", frameSize, allowDrop)
	return h, nil
}

// Frames returns the lazy frame sequence for h. Closing h ends the
// sequence; reading from a closed handle's channel after Close simply
// yields no further frames (the channel is never explicitly closed
// since the malgo callback may still be running, but OnSamples stops
// forwarding to a closed handle).
func (f *Fabric) Frames(h *CaptureHandle) <-chan Frame {
	return h.frames
}

// Mute causes frames(h) to yield zero-filled buffers of identical
// framing rather than real audio. Idempotent.
func (f *Fabric) Mute(h *CaptureHandle) {
	if h == nil {
		return
	}
	h.muted.Store(true)
}

// Unmute reverses Mute. Idempotent.
func (f *Fabric) Unmute(h *CaptureHandle) {
	if h == nil {
		return
	}
	h.muted.Store(false)
}

// CloseCapture releases h and clears it as the process-wide handle if
// it is still the current one.
func (f *Fabric) CloseCapture(h *CaptureHandle) {
	if h == nil {
		return
	}
	h.Close()
	f.mu.Lock()
	if f.handle == h {
		f.handle = nil
	}
	f.mu.Unlock()
	f.log.Debug("audiofabric: capture handle closed")
}

func (f *Fabric) currentHandle() *CaptureHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handle
}

// onSamples is the malgo duplex callback: distributes captured samples
// to the open handle (honoring mute) and drains the playback buffer
// into the output, grounded on the teacher's cmd/agent/main.go onSamples
// closure.
func (f *Fabric) onSamples(pOutput, pInput []byte, frameCount uint32) {
	if pInput != nil {
		h := f.currentHandle()
		if h != nil && !h.Closed() {
			samples := bytesToInt16(pInput)
			if h.muted.Load() {
				samples = make([]int16, len(samples))
			}
			frame := Frame{Samples: samples, SampleRate: f.sampleRate}
			if h.allowDrop {
				select {
				case h.frames <- frame:
				default:
					// wake-word mode: drop under pressure rather than
					// block the audio callback thread.
				}
			} else {
				select {
				case h.frames <- frame:
				case <-h.closed:
				}
			}
		}
	}

	if pOutput != nil {
		f.playMu.Lock()
		n := copy(pOutput, f.playBuf)
		f.playBuf = f.playBuf[n:]
		if n > 0 {
			f.lastPlayedAt = time.Now()
		}
		drainedNow := f.playFinal && len(f.playBuf) == 0 && f.playDrained != nil
		var drained chan struct{}
		if drainedNow {
			drained = f.playDrained
			f.playDrained = nil
		}
		f.playMu.Unlock()

		for i := n; i < len(pOutput); i++ {
			pOutput[i] = 0
		}
		if drained != nil {
			close(drained)
		}
	}
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// PlayPCMStream writes chunks to the speaker, blocking until drained
// (spec §4.1 play_pcm_stream). If a capture handle is open, it is muted
// before the first sample and unmuted only after the speaker has
// drained (invariant 3, §3.2 — mute discipline). Playback calls
// serialize (invariant 2).
func (f *Fabric) PlayPCMStream(ctx context.Context, chunks <-chan []byte, useNudgeDelays bool, cfg Config) error {
	f.playbackMu.Lock()
	defer f.playbackMu.Unlock()

	h := f.currentHandle()
	if h != nil && !cfg.KeepCaptureUnmuted {
		f.Mute(h)
		defer f.Unmute(h)
	}

	if useNudgeDelays && cfg.NudgePreDelay > 0 {
		time.Sleep(cfg.NudgePreDelay)
	}

	drained := make(chan struct{})
	f.playMu.Lock()
	f.playFinal = false
	f.playDrained = drained
	f.playMu.Unlock()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				f.playMu.Lock()
				f.playFinal = true
				empty := len(f.playBuf) == 0
				var toClose chan struct{}
				if empty {
					toClose = f.playDrained
					f.playDrained = nil
				}
				f.playMu.Unlock()
				if toClose != nil {
					close(toClose)
				}
				goto waitDrain
			}
			f.playMu.Lock()
			f.playBuf = append(f.playBuf, chunk...)
			f.playMu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

waitDrain:
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	if useNudgeDelays && cfg.NudgePostDelay > 0 {
		time.Sleep(cfg.NudgePostDelay)
	}
	return nil
}

// PlayFile loads a WAV cue file and plays it through PlayPCMStream as a
// single chunk. Used when use_audio_files is configured (spec §6.6).
func (f *Fabric) PlayFile(ctx context.Context, path string, useNudgeDelays bool, cfg Config) error {
	pcm, _, err := audio.ReadWavFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	chunks := make(chan []byte, 1)
	chunks <- pcm
	close(chunks)
	return f.PlayPCMStream(ctx, chunks, useNudgeDelays, cfg)
}

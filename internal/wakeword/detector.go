// Package wakeword implements the Wake-Word Watcher (spec §4.2): a
// background task that pulls 16 kHz PCM frames from the Audio I/O
// Fabric and invokes a single-shot on_wake callback when the wake
// phrase is detected.
//
// ONNXDetector is an openWakeWord-style pipeline (melspectrogram →
// embedding → wakeword), grounded on
// _examples/hammamikhairi-otto/internal/wakeword/detector.go, adapted
// to consume frames from the shared Fabric rather than opening its own
// capture device (the Fabric already enforces mic exclusivity,
// invariant 1, §3.2).
package wakeword

import (
	"context"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

const (
	chunkSamples  = 1280 // 80 ms @ 16 kHz
	melWindowSize = 76
	melStepSize   = 8
	embeddingDim  = 96
	nEmbedFrames  = 16
	melBins       = 32
	nMelFrames    = 5

	// scoreWindowSize trails recent scores; the detector triggers on the
	// max within the window to absorb frame-alignment jitter.
	scoreWindowSize = 5
	recentWindow    = 5
)

// Config holds model paths and detection tuning.
type Config struct {
	WakewordModel  string
	MelspecModel   string
	EmbeddingModel string
	OnnxLib        string

	Threshold float64
	Cooldown  time.Duration
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 1500 * time.Millisecond
	}
}

// Detector is the edge-triggered wake-word watcher. Re-startable after
// Stop, per spec §4.2's initialize/start/stop/cleanup lifecycle.
type Detector struct {
	cfg Config
	log logging.Logger

	mu         sync.Mutex
	paused     bool
	needsReset bool
	running    bool
	cancel     context.CancelFunc
	stopped    chan struct{}
}

// New creates a Detector. Call Start to begin listening.
func New(cfg Config, log logging.Logger) *Detector {
	cfg.defaults()
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	return &Detector{cfg: cfg, log: log}
}

// Pause suspends detection without tearing down ONNX sessions (used
// while TTS plays so the watcher does not pick up the speaker output —
// though the Fabric's mute discipline already silences those frames;
// Pause additionally avoids burning CPU on known-silent input).
func (d *Detector) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// Resume re-enables detection and flags the pipeline buffers to be
// flushed on the next frame, so stale state doesn't cause a spurious
// trigger.
func (d *Detector) Resume() {
	d.mu.Lock()
	d.paused = false
	d.needsReset = true
	d.mu.Unlock()
}

func (d *Detector) isPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Detector) checkReset() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.needsReset {
		d.needsReset = false
		return true
	}
	return false
}

// Start initializes the three ONNX sessions and runs the detection loop
// over frames until ctx is cancelled or Stop is called, invoking onWake
// at most once per cooldown window. Run this in its own goroutine; it
// blocks until the loop exits.
func (d *Detector) Start(ctx context.Context, frames <-chan []int16, onWake func()) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	childCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.stopped = make(chan struct{})
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		close(d.stopped)
		d.mu.Unlock()
	}()

	ort.SetSharedLibraryPath(d.cfg.OnnxLib)
	if err := ort.InitializeEnvironment(); err != nil {
		d.log.Error("wakeword: onnx init failed: %v", err)
		return err
	}
	defer ort.DestroyEnvironment()

	melspecIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, chunkSamples))
	if err != nil {
		return err
	}
	defer melspecIn.Destroy()
	melspecOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, nMelFrames, melBins))
	if err != nil {
		return err
	}
	defer melspecOut.Destroy()
	msIn, msOut, err := ort.GetInputOutputInfo(d.cfg.MelspecModel)
	if err != nil {
		return err
	}
	melspecSess, err := ort.NewAdvancedSession(d.cfg.MelspecModel,
		[]string{msIn[0].Name}, []string{msOut[0].Name},
		[]ort.Value{melspecIn}, []ort.Value{melspecOut}, nil)
	if err != nil {
		return err
	}
	defer melspecSess.Destroy()

	embedIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, melWindowSize, melBins, 1))
	if err != nil {
		return err
	}
	defer embedIn.Destroy()
	embedOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, 1, embeddingDim))
	if err != nil {
		return err
	}
	defer embedOut.Destroy()
	emIn, emOut, err := ort.GetInputOutputInfo(d.cfg.EmbeddingModel)
	if err != nil {
		return err
	}
	embedSess, err := ort.NewAdvancedSession(d.cfg.EmbeddingModel,
		[]string{emIn[0].Name}, []string{emOut[0].Name},
		[]ort.Value{embedIn}, []ort.Value{embedOut}, nil)
	if err != nil {
		return err
	}
	defer embedSess.Destroy()

	wwIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, nEmbedFrames, embeddingDim))
	if err != nil {
		return err
	}
	defer wwIn.Destroy()
	wwOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return err
	}
	defer wwOut.Destroy()
	wwInInfo, wwOutInfo, err := ort.GetInputOutputInfo(d.cfg.WakewordModel)
	if err != nil {
		return err
	}
	wwSess, err := ort.NewAdvancedSession(d.cfg.WakewordModel,
		[]string{wwInInfo[0].Name}, []string{wwOutInfo[0].Name},
		[]ort.Value{wwIn}, []ort.Value{wwOut}, nil)
	if err != nil {
		return err
	}
	defer wwSess.Destroy()

	melBuffer := make([]float32, 0, 300*melBins)
	embedBuffer := make([]float32, nEmbedFrames*embeddingDim)
	audioRem := make([]int16, 0, chunkSamples*2)
	lastDetect := time.Time{}
	scoreWindow := make([]float32, scoreWindowSize)
	scoreIdx := 0

	for {
		select {
		case <-childCtx.Done():
			return childCtx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if d.isPaused() {
				continue
			}
			if d.checkReset() {
				melBuffer = melBuffer[:0]
				for i := range embedBuffer {
					embedBuffer[i] = 0
				}
				audioRem = audioRem[:0]
				for i := range scoreWindow {
					scoreWindow[i] = 0
				}
				scoreIdx = 0
			}

			audioRem = append(audioRem, frame...)

			for len(audioRem) >= chunkSamples {
				chunk := audioRem[:chunkSamples]
				n := copy(audioRem, audioRem[chunkSamples:])
				audioRem = audioRem[:n]

				inData := melspecIn.GetData()
				for i, v := range chunk {
					inData[i] = float32(v)
				}
				if err := melspecSess.Run(); err != nil {
					d.log.Error("wakeword: melspec run failed: %v", err)
					continue
				}

				melData := melspecOut.GetData()
				for f := 0; f < nMelFrames; f++ {
					for b := 0; b < melBins; b++ {
						idx := f*melBins + b
						if idx < len(melData) {
							melBuffer = append(melBuffer, melData[idx]/10.0+2.0)
						}
					}
				}

				totalMel := len(melBuffer) / melBins
				newEmbed := false
				for totalMel >= melWindowSize {
					eData := embedIn.GetData()
					copy(eData, melBuffer[:melWindowSize*melBins])
					if err := embedSess.Run(); err != nil {
						d.log.Error("wakeword: embed run failed: %v", err)
						break
					}
					eOut := embedOut.GetData()
					copy(embedBuffer, embedBuffer[embeddingDim:])
					copy(embedBuffer[(nEmbedFrames-1)*embeddingDim:], eOut[:embeddingDim])
					newEmbed = true

					n := copy(melBuffer, melBuffer[melStepSize*melBins:])
					melBuffer = melBuffer[:n]
					totalMel = len(melBuffer) / melBins
				}
				if totalMel > melWindowSize {
					excess := (totalMel - melWindowSize) * melBins
					n := copy(melBuffer, melBuffer[excess:])
					melBuffer = melBuffer[:n]
				}
				if !newEmbed {
					continue
				}

				wwData := wwIn.GetData()
				padSlots := nEmbedFrames - recentWindow
				for i := 0; i < padSlots*embeddingDim; i++ {
					wwData[i] = 0
				}
				copy(wwData[padSlots*embeddingDim:], embedBuffer[padSlots*embeddingDim:])
				if err := wwSess.Run(); err != nil {
					d.log.Error("wakeword: wakeword run failed: %v", err)
					continue
				}

				score := wwOut.GetData()[0]
				now := time.Now()
				scoreWindow[scoreIdx%scoreWindowSize] = score
				scoreIdx++

				var maxScore float32
				for _, s := range scoreWindow {
					if s > maxScore {
						maxScore = s
					}
				}

				if float64(maxScore) >= d.cfg.Threshold && now.Sub(lastDetect) > d.cfg.Cooldown {
					d.log.Info("wakeword: detected (score=%.4f windowMax=%.4f)", score, maxScore)
					lastDetect = now
					for i := range scoreWindow {
						scoreWindow[i] = 0
					}
					if onWake != nil {
						onWake()
					}
				}
			}
		}
	}
}

// Stop cancels the detection loop. Safe to call even if Start has not
// yet returned; blocks until the loop has fully exited.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	stopped := d.stopped
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if stopped != nil {
		<-stopped
	}
}

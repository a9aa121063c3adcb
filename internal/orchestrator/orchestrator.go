package orchestrator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/activity"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// graceDelay is the pause enforced between one activity ending and the
// next Idle entry, letting audio devices settle (spec.md §4.7).
const graceDelay = 200 * time.Millisecond

// WakeDetector is the wake-word watcher contract the Orchestrator
// drives: Start blocks until ctx is cancelled or Stop is called,
// invoking onWake (at most once per cooldown window) whenever the wake
// phrase is recognized in frames.
type WakeDetector interface {
	Start(ctx context.Context, frames <-chan []int16, onWake func()) error
	Pause()
	Resume()
	Stop()
}

// Orchestrator runs the single top-level loop (spec.md §4.7): listen
// for the wake word, run Idle to resolve an intent, construct and run
// the matching activity, and repeat. It also owns the intervention
// poller and the UI status bus for the lifetime of the process.
type Orchestrator struct {
	runtime *activity.Runtime
	audio   activity.AudioIO
	wake    WakeDetector
	poller  *intervention.Poller
	bus     *StatusBus
	cfg     *config.Config
	log     logging.Logger

	user string

	running atomic.Bool
	cancel  context.CancelFunc
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithPoller attaches an intervention poller the Orchestrator starts
// and stops alongside its own run loop.
func WithPoller(p *intervention.Poller) Option {
	return func(o *Orchestrator) { o.poller = p }
}

// New builds an Orchestrator for the given user, wiring the activity
// runtime, the audio fabric (for the wake-word capture handle), and the
// wake-word detector together.
func New(runtime *activity.Runtime, audio activity.AudioIO, wake WakeDetector, bus *StatusBus, cfg *config.Config, log logging.Logger, user string, opts ...Option) *Orchestrator {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	if bus == nil {
		bus = NewStatusBus()
	}
	o := &Orchestrator{
		runtime: runtime,
		audio:   audio,
		wake:    wake,
		bus:     bus,
		cfg:     cfg,
		log:     log,
		user:    user,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bus returns the status bus the GUI collaborator polls.
func (o *Orchestrator) Bus() *StatusBus { return o.bus }

// Run drives the Idle→activity→Idle loop until ctx is cancelled or an
// activity returns Terminate. Blocking; call in its own goroutine or
// from main.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	defer cancel()

	if o.poller != nil {
		o.poller.Start(ctx)
		defer o.poller.Stop()
	}

	o.running.Store(true)
	defer o.running.Store(false)

	o.bus.Publish(StatusSnapshot{Event: EventConnected})
	o.bus.Publish(StatusSnapshot{Event: EventSystemReady, Active: true, Language: o.cfg.Language})

	for {
		if ctx.Err() != nil {
			o.bus.Publish(StatusSnapshot{Event: EventPipelineStopped})
			return nil
		}

		if err := o.waitForWake(ctx); err != nil {
			if ctx.Err() != nil {
				o.bus.Publish(StatusSnapshot{Event: EventPipelineStopped})
				return nil
			}
			o.log.Warn("orchestrator: wake-word watcher ended: %v", err)
			continue
		}

		o.bus.Publish(StatusSnapshot{Event: EventWakewordDetected, Active: true})

		next, err := o.runChain(ctx, activity.KindIdle, o.user, activity.Seed{})
		if err != nil {
			o.log.Error("orchestrator: activity chain ended with error: %v", err)
			o.bus.Publish(StatusSnapshot{Event: EventError, Message: err.Error()})
		}
		if next.IsTerminate() {
			o.bus.Publish(StatusSnapshot{Event: EventPipelineStopped})
			return nil
		}

		select {
		case <-time.After(graceDelay):
		case <-ctx.Done():
			o.bus.Publish(StatusSnapshot{Event: EventPipelineStopped})
			return nil
		}
	}
}

// Stop cancels the running loop. A no-op if Run has not been called.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// runChain runs kind and keeps following the NextAction chain an
// activity hands back (route or completed) until one returns to Idle
// or terminates, so a multi-hop handoff (e.g. Gratitude → SmallTalk)
// resolves within one wake cycle without the caller looping.
func (o *Orchestrator) runChain(ctx context.Context, kind activity.Kind, user string, seed activity.Seed) (activity.NextAction, error) {
	for {
		next, err := o.runtime.Run(ctx, kind, user, seed)
		if err != nil {
			return next, err
		}
		if next.IsTerminate() || next.Target() == activity.KindIdle {
			return next, nil
		}
		kind, seed = next.Target(), next.SeedData()
	}
}

// waitForWake opens a capture handle in wake-word mode (drop-under-
// pressure, per spec.md §4.1) and blocks until the detector fires
// onWake or ctx is cancelled.
func (o *Orchestrator) waitForWake(ctx context.Context) error {
	handle, err := o.audio.OpenCapture(o.cfg.FrameSize, true)
	if err != nil {
		return err
	}
	defer o.audio.CloseCapture(handle)

	frames := make(chan []int16)
	go func() {
		defer close(frames)
		in := o.audio.Frames(handle)
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-in:
				if !ok {
					return
				}
				select {
				case frames <- f.Samples:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	woke := make(chan struct{}, 1)
	wctx, wcancel := context.WithCancel(ctx)
	defer wcancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- o.wake.Start(wctx, frames, func() {
			select {
			case woke <- struct{}{}:
			default:
			}
			wcancel()
		})
	}()

	select {
	case <-woke:
		<-errCh
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		wcancel()
		<-errCh
		return ctx.Err()
	}
}

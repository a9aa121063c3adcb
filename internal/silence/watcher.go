// Package silence implements the shared silence watcher every activity's
// Listening state uses (spec §4.6 "Silence watcher (shared)"): a
// single-threaded timer loop that nudges after silence_timeout_s and
// ends the Listening state after a further nudge_timeout_s, pausing
// while the speaker plays or the mic is muted.
package silence

import (
	"context"
	"sync"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithTickInterval sets the sampling granularity of the watcher loop.
func WithTickInterval(d time.Duration) Option {
	return func(w *Watcher) { w.tickInterval = d }
}

// Watcher tracks elapsed silence for one Listening state. Create one per
// Listening-state entry; it is not restartable once Stop is called.
type Watcher struct {
	silenceTimeout time.Duration
	nudgeTimeout   time.Duration
	tickInterval   time.Duration
	onNudge        func()
	onTimeout      func()
	log            logging.Logger

	mu              sync.Mutex
	lastActivity    time.Time
	nudged          bool
	paused          bool
	pausedAt        time.Time
	accumulatedPause time.Duration
	cancel          context.CancelFunc
	done            chan struct{}
}

// New creates a Watcher with the given silence/nudge timeouts and
// callbacks. onNudge is invoked at most once per silence period (Touch
// re-arms it); onTimeout is invoked at most once per watcher lifetime,
// and only after onNudge has already fired.
func New(silenceTimeout, nudgeTimeout time.Duration, onNudge, onTimeout func(), log logging.Logger, opts ...Option) *Watcher {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	w := &Watcher{
		silenceTimeout: silenceTimeout,
		nudgeTimeout:   nudgeTimeout,
		tickInterval:   100 * time.Millisecond,
		onNudge:        onNudge,
		onTimeout:      onTimeout,
		log:            log,
		lastActivity:   time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the watcher's background loop. Non-blocking.
func (w *Watcher) Start(ctx context.Context) {
	childCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(childCtx)
}

// Stop cancels the watcher loop immediately; safe to call more than
// once and safe to call even if Start was never called.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Touch records user activity (a non-empty transcript, or a PCM burst
// above the noise floor), resetting the elapsed-silence clock.
func (w *Watcher) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActivity = time.Now()
	w.accumulatedPause = 0
	w.nudged = false
}

// Pause suspends the elapsed-silence clock (speaker playing, or mic
// muted). Idempotent.
func (w *Watcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		return
	}
	w.paused = true
	w.pausedAt = time.Now()
}

// Resume continues the elapsed-silence clock from its pre-pause value
// (spec §8 boundary behavior: the timer resumes, it does not reset).
// Idempotent.
func (w *Watcher) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.paused {
		return
	}
	w.accumulatedPause += time.Since(w.pausedAt)
	w.paused = false
}

// elapsed returns the silence duration, frozen at its pre-pause value
// while paused so pause intervals never count toward the nudge/timeout
// clocks (spec §8 boundary behavior).
func (w *Watcher) elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		return w.pausedAt.Sub(w.lastActivity) - w.accumulatedPause
	}
	return time.Since(w.lastActivity) - w.accumulatedPause
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.tick() {
				return
			}
		}
	}
}

// tick evaluates the silence contract once; returns true when the
// watcher has fired its timeout and should stop.
func (w *Watcher) tick() bool {
	w.mu.Lock()
	paused := w.paused
	nudged := w.nudged
	w.mu.Unlock()

	if paused {
		return false
	}

	elapsed := w.elapsed()

	if !nudged && elapsed >= w.silenceTimeout {
		w.mu.Lock()
		w.nudged = true
		w.mu.Unlock()
		w.log.Debug("silence watcher: nudging after %s", elapsed)
		if w.onNudge != nil {
			w.onNudge()
		}
		return false
	}

	if nudged && elapsed >= w.silenceTimeout+w.nudgeTimeout {
		w.log.Debug("silence watcher: timing out after %s", elapsed)
		if w.onTimeout != nil {
			w.onTimeout()
		}
		return true
	}

	return false
}

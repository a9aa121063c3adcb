package activity

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/llm"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

// AudioIO is the subset of *audiofabric.Fabric the activity runtime
// consumes. Declared as an interface (rather than depending on the
// concrete Fabric directly) so activities can be exercised in tests
// against an in-memory fake instead of a real capture/playback device.
type AudioIO interface {
	OpenCapture(frameSize int, allowDrop bool) (*audiofabric.CaptureHandle, error)
	CloseCapture(h *audiofabric.CaptureHandle)
	Frames(h *audiofabric.CaptureHandle) <-chan audiofabric.Frame
	Mute(h *audiofabric.CaptureHandle)
	Unmute(h *audiofabric.CaptureHandle)
	PlayPCMStream(ctx context.Context, chunks <-chan []byte, useNudgeDelays bool, cfg audiofabric.Config) error
	PlayFile(ctx context.Context, path string, useNudgeDelays bool, cfg audiofabric.Config) error
}

var _ AudioIO = (*audiofabric.Fabric)(nil)

// Deps bundles every collaborator an activity needs. A single Deps is
// shared across activities within one process; nothing here is
// activity-specific.
type Deps struct {
	Audio        AudioIO
	STT          stt.StreamingProvider
	TTS          tts.StreamingProvider
	LLM          llm.StreamingProvider
	Store        persistence.Store
	Persona      *persistence.PersonaFile
	Records      *intervention.RecordStore
	Config       *config.Config
	Log          logging.Logger
	MeditationAI func() AudioIntentRecognizer
}

// runFunc is the signature every activity implementation satisfies.
type runFunc func(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error)

var registry = map[Kind]runFunc{
	KindIdle:               runIdle,
	KindSmallTalk:          runSmallTalk,
	KindJournal:            runJournal,
	KindGratitude:          runGratitude,
	KindQuote:              runQuote,
	KindMeditation:         runMeditation,
	KindActivitySuggestion: runActivitySuggestion,
}

// Runtime dispatches to the registered activity implementations,
// wrapping every run in the activity-lifecycle logging spec.md §6.4
// requires (log_activity_start/log_activity_completion) so no
// individual activity implements that bookkeeping itself.
type Runtime struct {
	deps *Deps
}

func NewRuntime(d *Deps) *Runtime {
	return &Runtime{deps: d}
}

// Run executes the activity named by kind and returns its NextAction.
// A panic inside the activity is recovered and reported as an error so
// one activity's bug cannot crash the whole orchestrator loop.
func (r *Runtime) Run(ctx context.Context, kind Kind, user string, seed Seed) (next NextAction, err error) {
	fn, ok := registry[kind]
	if !ok {
		return NextAction{}, fmt.Errorf("activity: no implementation registered for %q", kind)
	}

	sess := &Session{Kind: kind, User: user, StartedAt: time.Now()}

	triggerType := "wake"
	if seed.Data != "" || seed.SystemPrompt != "" {
		triggerType = "handoff"
	}
	if kind == KindActivitySuggestion {
		triggerType = "suggestion"
	}

	activityID := ""
	if r.deps.Store != nil {
		id, logErr := r.deps.Store.LogActivityStart(ctx, user, string(kind), triggerType, timeOfDay(time.Now()))
		if logErr != nil {
			r.deps.Log.Warn("activity: log_activity_start failed for %s: %v", kind, logErr)
		} else {
			activityID = id
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("activity %s panicked: %v", kind, rec)
			next = NextAction{}
		}
		completed := err == nil && !next.terminate
		if activityID != "" && r.deps.Store != nil {
			if logErr := r.deps.Store.LogActivityCompletion(ctx, activityID, completed); logErr != nil {
				r.deps.Log.Warn("activity: log_activity_completion failed for %s: %v", kind, logErr)
			}
		}
	}()

	next, err = fn(ctx, r.deps, sess, seed)
	if err != nil {
		r.deps.Log.Error("activity %s ended with error: %v", kind, err)
	}
	return next, err
}

// drainWithTimeout joins the given worker goroutines (wrapped in an
// errgroup) with a bounded wait, per spec §5's "join worker tasks with
// a bounded wait (≤2s)".
func drainWithTimeout(parent context.Context, timeout time.Duration, workers ...func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error { return w(gctx) })
	}
	return g.Wait()
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 5:
		return "night"
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	case h < 21:
		return "evening"
	default:
		return "night"
	}
}

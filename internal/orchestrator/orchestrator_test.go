package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/activity"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/llm"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/wakeword"
)

func testDeps(t *testing.T, script ...stt.Transcript) (*activity.Deps, *fakeAudio) {
	t.Helper()
	audio := newFakeAudio()
	cfg := config.Default()
	cfg.ActivityTimings = map[string]config.ActivityTiming{
		"default": {SilenceTimeoutS: 0.05, NudgeTimeoutS: 0.05},
	}
	return &activity.Deps{
		Audio:   audio,
		STT:     stt.NewMockProvider(script...),
		TTS:     tts.NewMockProvider(),
		LLM:     llm.NewMockProvider("Sure, let's talk."),
		Store:   persistence.NewLocalStore("", &logging.NoOpLogger{}),
		Records: intervention.NewRecordStore(t.TempDir() + "/record.json"),
		Config:  cfg,
		Log:     &logging.NoOpLogger{},
	}, audio
}

func newOrchestrator(t *testing.T, deps *activity.Deps, audio *fakeAudio, wake WakeDetector) (*Orchestrator, *StatusBus) {
	t.Helper()
	runtime := activity.NewRuntime(deps)
	bus := NewStatusBus()
	return New(runtime, audio, wake, bus, deps.Config, &logging.NoOpLogger{}, "u1"), bus
}

// TestOrchestratorPublishesConnectedAndReadyBeforeFirstWake asserts the
// startup event sequence fires even if the wake word never comes.
func TestOrchestratorPublishesConnectedAndReadyBeforeFirstWake(t *testing.T) {
	deps, audio := testDeps(t)
	wake := wakeword.NewMockDetector()
	orch, bus := newOrchestrator(t, deps, audio, wake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for bus.Snapshot().Event != EventSystemReady && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := bus.Snapshot().Event; got != EventSystemReady {
		t.Fatalf("expected system_ready to be published at startup, got %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := bus.Snapshot().Event; got != EventPipelineStopped {
		t.Fatalf("expected pipeline_stopped on shutdown, got %q", got)
	}
}

// TestOrchestratorLoopsBackToWakeListeningAfterIdleTimeout drives one
// full wake→Idle→(silence timeout)→wake-listening cycle and confirms the
// loop is still alive and willing to fire again afterward.
func TestOrchestratorLoopsBackToWakeListeningAfterIdleTimeout(t *testing.T) {
	deps, audio := testDeps(t) // empty STT script: idle's listen always times out
	wake := wakeword.NewMockDetector()
	orch, bus := newOrchestrator(t, deps, audio, wake)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	waitForEvent(t, bus, EventSystemReady)
	waitForStarts(t, wake, 1)
	wake.Fire()
	waitForEvent(t, bus, EventWakewordDetected)

	// Idle times out on silence and routes back to idle; the top-level
	// loop waits out graceDelay and calls waitForWake again, which
	// restarts the detector for another cycle.
	waitForStarts(t, wake, 2)
	wake.Fire()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// TestOrchestratorStopCancelsTheRunLoop asserts Stop() unblocks Run even
// mid wake-wait, without relying on the caller's context.
func TestOrchestratorStopCancelsTheRunLoop(t *testing.T) {
	deps, audio := testDeps(t)
	wake := wakeword.NewMockDetector()
	orch, bus := newOrchestrator(t, deps, audio, wake)

	done := make(chan error, 1)
	go func() { done <- orch.Run(context.Background()) }()

	waitForEvent(t, bus, EventSystemReady)
	orch.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not unblock Run")
	}
	if got := bus.Snapshot().Event; got != EventPipelineStopped {
		t.Fatalf("expected pipeline_stopped after Stop(), got %q", got)
	}
}

func waitForStarts(t *testing.T, wake *wakeword.MockDetector, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if wake.Starts() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d detector starts, got %d", want, wake.Starts())
}

func waitForEvent(t *testing.T, bus *StatusBus, want EventType, timeout ...time.Duration) {
	t.Helper()
	d := time.Second
	if len(timeout) > 0 {
		d = timeout[0]
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if bus.Snapshot().Event == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for event %q, last seen %q", want, bus.Snapshot().Event)
}

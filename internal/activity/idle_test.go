package activity

import (
	"context"
	"testing"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/llm"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

func baseTestDeps(t *testing.T, script ...stt.Transcript) (*Deps, *fakeAudio) {
	t.Helper()
	audio := newFakeAudio()
	cfg := config.Default()
	store := persistence.NewLocalStore("", &logging.NoOpLogger{})
	return &Deps{
		Audio:   audio,
		STT:     stt.NewMockProvider(script...),
		TTS:     tts.NewMockProvider(),
		LLM:     llm.NewMockProvider(),
		Store:   store,
		Records: intervention.NewRecordStore(t.TempDir() + "/record.json"),
		Config:  cfg,
		Log:     &logging.NoOpLogger{},
	}, audio
}

func TestRunIdleRoutesOnIntentMatch(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "I want to chat", IsFinal: true})
	next, err := runIdle(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runIdle: %v", err)
	}
	if next.IsTerminate() || next.Target() != KindSmallTalk {
		t.Fatalf("expected route to small_talk, got %+v", next)
	}
}

func TestRunIdleReturnsToIdleOnNoMatchNoTrigger(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "what's the weather like", IsFinal: true})
	next, err := runIdle(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runIdle: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle, got %+v", next)
	}
}

func TestRunIdleEscalatesToSuggestionOnInterventionTrigger(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "nothing in particular", IsFinal: true})
	if err := d.Records.Save(&intervention.Record{LatestDecision: &intervention.Decision{TriggerIntervention: true}}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	next, err := runIdle(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runIdle: %v", err)
	}
	if next.Target() != KindActivitySuggestion {
		t.Fatalf("expected route to activity_suggestion, got %+v", next)
	}
}

func TestRunIdleReturnsToIdleOnTimeout(t *testing.T) {
	d, _ := baseTestDeps(t) // empty script: no transcripts ever arrive
	d.Config.ActivityTimings = map[string]config.ActivityTiming{
		"default": {SilenceTimeoutS: 0.02, NudgeTimeoutS: 0.02},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	next, err := runIdle(ctx, d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runIdle: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle on timeout, got %+v", next)
	}
}

package activity

import (
	"context"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

func TestRunGratitudeSavesNoteAndHandsOff(t *testing.T) {
	d, _ := baseTestDeps(t,
		stt.Transcript{Text: "my kids and a sunny morning", IsFinal: true},
		stt.Transcript{Text: "done", IsFinal: true},
	)
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runGratitude(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runGratitude: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected hand-off to small_talk, got %+v", next)
	}
	if next.SeedData().Data != "my kids and a sunny morning" {
		t.Fatalf("expected the seed to carry the saved note, got %+v", next.SeedData())
	}
	if !spoke(tm, "Thank you") {
		t.Fatalf("expected a spoken confirmation, got %+v", tm.Synthesized)
	}
}

func TestRunGratitudeReturnsToIdleOnEmptyNote(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "done", IsFinal: true})
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runGratitude(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runGratitude: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle on an empty note, got %+v", next)
	}
}

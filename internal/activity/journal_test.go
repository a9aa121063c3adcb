package activity

import (
	"context"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

func TestRunJournalSavesOnMinimumContent(t *testing.T) {
	d, _ := baseTestDeps(t,
		stt.Transcript{Text: "today was a genuinely good day and I felt proud of myself", IsFinal: true},
		stt.Transcript{Text: "stop", IsFinal: true},
	)
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runJournal(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runJournal: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected hand-off to small_talk after saving, got %+v", next)
	}

	if !spoke(tm, "saved your journal entry") {
		t.Fatalf("expected the save confirmation to be spoken, got %+v", tm.Synthesized)
	}
}

func TestRunJournalSkipsSaveBelowMinimum(t *testing.T) {
	d, _ := baseTestDeps(t,
		stt.Transcript{Text: "hm", IsFinal: true},
		stt.Transcript{Text: "stop", IsFinal: true},
	)
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runJournal(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runJournal: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle when content is below the minimum, got %+v", next)
	}

	if spoke(tm, "saved your journal entry") {
		t.Fatalf("did not expect a save confirmation, got %+v", tm.Synthesized)
	}
}

package activity

import (
	"context"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
)

func seedSuggestion(t *testing.T, d *Deps, ranked ...intervention.RankedActivity) {
	t.Helper()
	if err := d.Records.Save(&intervention.Record{
		LatestSuggestion: &intervention.Suggestion{RankedActivities: ranked},
	}); err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}
}

func TestRunActivitySuggestionRoutesOnIntentMatch(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "let's journal", IsFinal: true})
	seedSuggestion(t, d, intervention.RankedActivity{ActivityType: "journal", Rank: 1})

	next, err := runActivitySuggestion(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runActivitySuggestion: %v", err)
	}
	if next.Target() != KindJournal {
		t.Fatalf("expected route to journal, got %+v", next)
	}
}

func TestRunActivitySuggestionNoSuggestionsReturnsIdle(t *testing.T) {
	d, _ := baseTestDeps(t)

	next, err := runActivitySuggestion(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runActivitySuggestion: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle with no cached suggestion, got %+v", next)
	}
}

func TestRunActivitySuggestionFallsBackToSmallTalkOnNonMatch(t *testing.T) {
	d, _ := baseTestDeps(t, stt.Transcript{Text: "what time is it", IsFinal: true})
	seedSuggestion(t, d, intervention.RankedActivity{ActivityType: "gratitude", Rank: 1})

	next, err := runActivitySuggestion(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runActivitySuggestion: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected fallback to small_talk, got %+v", next)
	}
}

package activity

import (
	"context"
	"testing"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

func TestRunQuoteSpeaksAndMarksSeen(t *testing.T) {
	d, _ := baseTestDeps(t)
	store := d.Store.(*persistence.LocalStore)
	store.SeedQuotes([]persistence.Quote{{ID: "q1", Text: "This too shall pass."}})
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runQuote(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runQuote: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected hand-off to small_talk, got %+v", next)
	}
	if !spoke(tm, "This too shall pass.") {
		t.Fatalf("expected the quote to be spoken, got %+v", tm.Synthesized)
	}

	again, err := store.FetchNextQuote(context.Background(), "u1", "general", "en")
	if err != nil {
		t.Fatalf("FetchNextQuote: %v", err)
	}
	if again != nil {
		t.Fatalf("expected the quote to be marked seen and not resurface, got %+v", again)
	}
}

func TestRunQuoteNoQuoteAvailable(t *testing.T) {
	d, _ := baseTestDeps(t)
	tm := tts.NewMockProvider()
	d.TTS = tm

	next, err := runQuote(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runQuote: %v", err)
	}
	if next.Target() != KindIdle {
		t.Fatalf("expected return to idle when no quote is available, got %+v", next)
	}
	if !spoke(tm, "don't have a new quote") {
		t.Fatalf("expected a no-quote message to be spoken, got %+v", tm.Synthesized)
	}
}

package activity

import (
	"context"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
)

// runQuote implements spec.md §4.6.e: fetch a not-yet-seen quote
// filtered by the user's religion category (falling back to
// "general"), speak it, mark it seen, hand off to SmallTalk seeded
// with the quote text.
func runQuote(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)

	religion := "general"
	if d.Store != nil {
		if r, err := d.Store.GetUserReligion(ctx, sess.User); err == nil && r != "" {
			religion = r
		}
	}

	var quote *persistence.Quote
	if d.Store != nil {
		q, err := d.Store.FetchNextQuote(ctx, sess.User, religion, lang)
		if err != nil {
			d.Log.Warn("quote: FetchNextQuote failed: %v", err)
		} else {
			quote = q
		}
	}

	if quote == nil {
		if err := speak(ctx, d, "I don't have a new quote for you right now."); err != nil {
			d.Log.Warn("quote: no-quote prompt failed: %v", err)
		}
		return ReturnToIdle(), nil
	}

	if err := speak(ctx, d, "Here's a quote for you: "+quote.Text); err != nil {
		d.Log.Warn("quote: speak failed: %v", err)
	}

	if d.Store != nil {
		if err := d.Store.MarkQuoteSeen(ctx, sess.User, quote.ID); err != nil {
			d.Log.Warn("quote: MarkQuoteSeen failed: %v", err)
		}
	}

	return Completed(KindSmallTalk, Seed{
		SystemPrompt:  "The assistant just shared this quote with the user: " + quote.Text,
		OpeningPrompt: "What do you think of that?",
		Data:          quote.Text,
	}), nil
}

package activity

import (
	"context"
	"strings"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// runGratitude implements spec.md §4.6.d: single-note capture until the
// termination phrase, immediate persist, spoken confirmation, handoff
// to SmallTalk seeded with the note.
func runGratitude(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)
	term := termination.NewDetector(d.Config.TerminationPhrases[lang])
	defer term.SetActive(false)

	if err := speak(ctx, d, "What are you grateful for today?"); err != nil {
		d.Log.Warn("gratitude: opening prompt failed: %v", err)
	}

	var parts []string
	_, err := listenSession(ctx, d, d.Config.TimingFor(string(KindGratitude)), false, func(t stt.Transcript) error {
		if !t.IsFinal || t.Text == "" {
			return nil
		}
		if term.IsTerminationPhrase(t.Text) {
			return errkind.ErrTermination
		}
		parts = append(parts, t.Text)
		return nil
	})
	if err != nil && !stt.IsTermination(err) {
		return NextAction{}, err
	}

	note := strings.TrimSpace(strings.Join(parts, " "))
	if note == "" {
		if err := speak(ctx, d, "I didn't catch anything to save, that's okay."); err != nil {
			d.Log.Warn("gratitude: empty-note prompt failed: %v", err)
		}
		return ReturnToIdle(), nil
	}

	if d.Store != nil {
		if _, err := d.Store.SaveGratitudeItem(ctx, sess.User, note); err != nil {
			d.Log.Warn("gratitude: SaveGratitudeItem failed: %v", err)
		}
	}

	if err := speak(ctx, d, "Thank you for sharing that."); err != nil {
		d.Log.Warn("gratitude: confirmation failed: %v", err)
	}

	return Completed(KindSmallTalk, Seed{
		SystemPrompt:  "The user is grateful for: " + note,
		OpeningPrompt: "It's nice that you're grateful for that. What else is on your mind?",
		Data:          note,
	}), nil
}

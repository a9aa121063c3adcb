package activity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// runJournal implements spec.md §4.6.c / §4.8: dictation accumulated
// into paragraphs separated by pauses ≥ pause_finalization_s, saved
// once (via saveOnce) iff the accumulated content meets the
// language-aware minimum.
func runJournal(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)
	term := termination.NewDetector(d.Config.TerminationPhrases[lang])
	defer term.SetActive(false)

	if err := speak(ctx, d, "I'm listening, go ahead."); err != nil {
		d.Log.Warn("journal: opening prompt failed: %v", err)
	}

	var (
		mu         sync.Mutex
		paragraphs []string
		current    strings.Builder
		lastFinal  = time.Now()
		saveOnce   sync.Once
		saved      bool
	)

	pauseThreshold := secs(d.Config.PauseFinalizationS)
	flushParagraph := func() {
		mu.Lock()
		defer mu.Unlock()
		text := strings.TrimSpace(current.String())
		if text != "" {
			paragraphs = append(paragraphs, text)
			current.Reset()
		}
	}

	tickerCtx, cancelTicker := context.WithCancel(ctx)
	defer cancelTicker()
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				pending := current.Len() > 0 && time.Since(lastFinal) >= pauseThreshold
				mu.Unlock()
				if pending {
					flushParagraph()
				}
			}
		}
	}()

	save := func() {
		flushParagraph()
		mu.Lock()
		body := strings.Join(paragraphs, "\n\n")
		mu.Unlock()

		saveOnce.Do(func() {
			if !meetsMinimumContent(body, lang, d.Config.CJKLanguages, d.Config.MinWordsThreshold) {
				_ = speak(ctx, d, "I didn't catch enough to save that as a journal entry.")
				return
			}
			if d.Store == nil {
				return
			}
			if _, err := d.Store.UpsertJournal(ctx, sess.User, "", body, d.Config.DefaultMood, nil, false); err != nil {
				d.Log.Warn("journal: UpsertJournal failed: %v", err)
				return
			}
			saved = true
			_ = speak(ctx, d, "Got it, I've saved your journal entry.")
		})
	}

	_, err := listenSession(ctx, d, d.Config.TimingFor(string(KindJournal)), false, func(t stt.Transcript) error {
		if !t.IsFinal || t.Text == "" {
			return nil
		}
		if term.IsTerminationPhrase(t.Text) {
			return errkind.ErrTermination
		}
		mu.Lock()
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(t.Text)
		lastFinal = time.Now()
		mu.Unlock()
		return nil
	})
	cancelTicker()

	if err != nil && !stt.IsTermination(err) {
		return NextAction{}, err
	}

	save()

	if saved {
		return Completed(KindSmallTalk, Seed{
			SystemPrompt:  "The user just finished a journal entry.",
			OpeningPrompt: "Thanks for sharing that. How are you feeling now?",
		}), nil
	}
	return ReturnToIdle(), nil
}

package activity

import (
	"context"
	"fmt"
	"sort"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/intervention"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// runActivitySuggestion implements spec.md §4.6.g: speak the locally
// cached ranked activity suggestions, listen for one intent keyword,
// and route on it. A non-match routes to SmallTalk; a termination
// keyword or silence timeout returns to Idle.
func runActivitySuggestion(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)
	term := termination.NewDetector(d.Config.TerminationPhrases[lang])
	defer term.SetActive(false)

	ranked := loadRankedActivities(d)
	if len(ranked) == 0 {
		if err := speak(ctx, d, "I don't have a suggestion for you right now."); err != nil {
			d.Log.Warn("activity_suggestion: no-suggestion prompt failed: %v", err)
		}
		return ReturnToIdle(), nil
	}

	if err := speak(ctx, d, suggestionIntro(ranked)); err != nil {
		d.Log.Warn("activity_suggestion: intro failed: %v", err)
	}

	var transcript string
	timedOut, err := listenSession(ctx, d, d.Config.TimingFor(string(KindActivitySuggestion)), true, func(t stt.Transcript) error {
		if t.IsFinal && t.Text != "" {
			transcript = t.Text
		}
		return nil
	})
	if err != nil {
		return NextAction{}, err
	}
	if timedOut || transcript == "" {
		return ReturnToIdle(), nil
	}
	if term.IsTerminationPhrase(transcript) {
		return ReturnToIdle(), nil
	}

	if intent, ok := MatchIntent(transcript, lang, d.Config.IntentKeywords); ok {
		if kind := Kind(intent); kind != "" {
			return Route(kind, Seed{}), nil
		}
	}

	return Route(KindSmallTalk, Seed{}), nil
}

// loadRankedActivities reads the intervention poller's cached
// suggestion, sorted by rank ascending.
func loadRankedActivities(d *Deps) []string {
	if d.Records == nil {
		return nil
	}
	rec, err := d.Records.Load()
	if err != nil || rec == nil || rec.LatestSuggestion == nil {
		return nil
	}
	ranked := append([]intervention.RankedActivity(nil), rec.LatestSuggestion.RankedActivities...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.ActivityType)
	}
	return out
}

func suggestionIntro(ranked []string) string {
	if len(ranked) == 1 {
		return fmt.Sprintf("How about some %s?", ranked[0])
	}
	text := "I have a few suggestions: "
	for i, r := range ranked {
		if i > 0 {
			text += ", "
		}
		text += r
	}
	return text
}

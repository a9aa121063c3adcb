package activity

import (
	"context"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// runIdle implements spec.md §4.6.a: acknowledge, listen for one
// utterance, and resolve it to an intent match, an unknown (possibly
// escalated to an activity suggestion), or a timeout.
func runIdle(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	if err := speakCue(ctx, d, "How can I help?"); err != nil {
		d.Log.Warn("idle: acknowledge cue failed: %v", err)
	}

	lang := userLanguage(ctx, d, sess.User)
	term := termination.NewDetector(d.Config.TerminationPhrases[lang])
	defer term.SetActive(false)

	var transcript string
	timedOut, err := listenSession(ctx, d, d.Config.TimingFor(string(KindIdle)), true, func(t stt.Transcript) error {
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

	if triggered := checkInterventionTrigger(d); triggered {
		if err := speak(ctx, d, "Let me suggest something for you."); err != nil {
			d.Log.Warn("idle: suggestion intro failed: %v", err)
		}
		return Route(KindActivitySuggestion, Seed{}), nil
	}

	return ReturnToIdle(), nil
}

// checkInterventionTrigger reads the locally cached intervention
// record and reports whether its latest decision says to suggest an
// activity (spec.md §6.5/§6.7).
func checkInterventionTrigger(d *Deps) bool {
	if d.Records == nil {
		return false
	}
	rec, err := d.Records.Load()
	if err != nil || rec == nil || rec.LatestDecision == nil {
		return false
	}
	return rec.LatestDecision.TriggerIntervention
}

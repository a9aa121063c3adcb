package activity

import (
	"strings"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// MatchIntent normalizes transcript and checks it against the
// configured keyword lists for the given language (spec §4.10,
// §6.6's "Intent keyword lists per language"). Returns the matched
// intent name and true, or ("", false) if nothing matched. Longer
// phrases are checked before shorter ones so a more specific phrase
// wins over a generic substring.
func MatchIntent(transcript, language string, keywords map[string]map[string][]string) (string, bool) {
	byIntent, ok := keywords[language]
	if !ok {
		byIntent = keywords["en"]
	}
	norm := termination.Normalize(transcript)
	if norm == "" {
		return "", false
	}

	type candidate struct {
		intent string
		phrase string
	}
	var hits []candidate
	for intent, phrases := range byIntent {
		for _, phrase := range phrases {
			p := termination.Normalize(phrase)
			if p == "" {
				continue
			}
			if norm == p || strings.HasPrefix(norm, p+" ") || strings.Contains(norm, p) {
				hits = append(hits, candidate{intent: intent, phrase: p})
			}
		}
	}
	if len(hits) == 0 {
		return "", false
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if len(h.phrase) > len(best.phrase) {
			best = h
		}
	}
	return best.intent, true
}

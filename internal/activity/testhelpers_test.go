package activity

import (
	"strings"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/tts"
)

// spoke reports whether any text passed to tm.StreamSynthesize contains
// substr, letting tests assert on an activity's spoken output without
// pinning down its exact wording.
func spoke(tm *tts.MockProvider, substr string) bool {
	for _, s := range tm.Synthesized {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

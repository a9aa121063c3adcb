// Package termination implements the shared termination phrase
// detector (spec §4.6 "Termination phrase detector (shared)"),
// translating original_source/backend/src/components/termination_phrase.py
// into the cooperative-cancellation idiom spec §9 requires in place of a
// sentinel exception.
package termination

import (
	"strings"
	"sync/atomic"
	"unicode"
)

// Normalize lowercases, strips punctuation, and collapses whitespace.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			prevSpace = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped entirely, does not count as a space
		default:
			b.WriteRune(unicode.ToLower(r))
			prevSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// Detector tests normalized transcript text against a configured phrase
// set using three matching strategies: exact, prefix+space, and
// substring. require_active guards against late callbacks firing after
// an activity has already exited (invariant 6, §3.2).
type Detector struct {
	phrases []string // pre-normalized
	active  atomic.Bool
}

// NewDetector builds a Detector over phrases (normalized once up
// front) and starts it active.
func NewDetector(phrases []string) *Detector {
	d := &Detector{phrases: make([]string, 0, len(phrases))}
	for _, p := range phrases {
		norm := Normalize(p)
		if norm != "" {
			d.phrases = append(d.phrases, norm)
		}
	}
	d.active.Store(true)
	return d
}

// SetActive toggles the require_active guard. Call SetActive(false) on
// activity exit so in-flight callbacks can no longer trigger.
func (d *Detector) SetActive(active bool) {
	d.active.Store(active)
}

// IsTerminationPhrase reports whether the given (not-yet-normalized)
// transcript text matches any configured phrase, guarded by
// require_active. Exact match, "phrase " prefix match, and substring
// match are all accepted (spec §8 boundary behavior: all three forms
// must match).
func (d *Detector) IsTerminationPhrase(text string) bool {
	if !d.active.Load() {
		return false
	}
	norm := Normalize(text)
	if norm == "" {
		return false
	}
	for _, phrase := range d.phrases {
		if norm == phrase {
			return true
		}
		if strings.HasPrefix(norm, phrase+" ") {
			return true
		}
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	return false
}

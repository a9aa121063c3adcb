// Package activity implements the Activity Runtime (spec §4.6): the
// shared silence/termination contract and the seven activity state
// machines (Idle, SmallTalk, Journal, Gratitude, Quote, Meditation,
// ActivitySuggestion), plus the top-level routing type they hand
// control back to the Orchestrator through.
package activity

import "time"

// Kind identifies which activity a NextAction routes to.
type Kind string

const (
	KindIdle               Kind = "idle"
	KindSmallTalk          Kind = "small_talk"
	KindJournal            Kind = "journal"
	KindGratitude          Kind = "gratitude"
	KindQuote              Kind = "quote"
	KindMeditation         Kind = "meditation"
	KindActivitySuggestion Kind = "activity_suggestion"
)

// Session is one run of an activity: a conversation ID, timing, and
// turn bookkeeping shared by every activity implementation.
type Session struct {
	Kind           Kind
	User           string
	ConversationID string
	StartedAt      time.Time
	TurnCount      int
}

// Seed carries handoff context from one activity into the next: an
// opening line to speak, a system prompt to pin into the new dialog
// history, and free-form data an activity may interpret (e.g. the
// gratitude note text, the quote text).
type Seed struct {
	OpeningPrompt string
	SystemPrompt  string
	Data          string
}

// outcome enumerates why an activity's Run returned, independent of
// where control goes next.
type outcome string

const (
	outcomeIntentMatch outcome = "intent_match"
	outcomeUnknown     outcome = "unknown"
	outcomeTimeout     outcome = "timeout"
	outcomeTermination outcome = "termination"
	outcomeCompleted   outcome = "completed"
	outcomeError       outcome = "error"
)

// NextAction is what an activity's Run returns: either route to
// another activity with a seed, return to idle, or terminate the
// whole session (process-level shutdown request).
type NextAction struct {
	routeTo   Kind
	route     bool
	terminate bool
	seed      Seed
	outcome   outcome
}

// Route hands control to the named activity with the given seed.
func Route(kind Kind, seed Seed) NextAction {
	return NextAction{routeTo: kind, route: true, seed: seed, outcome: outcomeIntentMatch}
}

// ReturnToIdle sends control back to Idle with no seed.
func ReturnToIdle() NextAction {
	return NextAction{routeTo: KindIdle, route: true, outcome: outcomeTimeout}
}

// Terminate ends the whole orchestrator session (e.g. a global
// termination phrase was detected in a context that means "stop
// listening entirely", or an unrecoverable device failure occurred).
func Terminate() NextAction {
	return NextAction{terminate: true, outcome: outcomeTermination}
}

// Completed routes to the given activity having finished successfully
// (as opposed to timing out or being interrupted).
func Completed(kind Kind, seed Seed) NextAction {
	a := Route(kind, seed)
	a.outcome = outcomeCompleted
	return a
}

func (a NextAction) IsTerminate() bool { return a.terminate }
func (a NextAction) Target() Kind      { return a.routeTo }
func (a NextAction) SeedData() Seed    { return a.seed }

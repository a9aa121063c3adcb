// Package dialog implements the Dialog/LLM Session's message history:
// a bounded rolling ring seeded with a system prompt, pinned system
// messages, and context-bundle injection (spec §4.5, §4.9).
package dialog

import "sync"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Language mirrors the teacher's Language enum, widened to the eight
// codes spec §6.6 and §4.8 reference.
type Language string

const (
	LangEN Language = "en"
	LangES Language = "es"
	LangFR Language = "fr"
	LangDE Language = "de"
	LangIT Language = "it"
	LangPT Language = "pt"
	LangJA Language = "ja"
	LangZH Language = "zh"
)

// ContextBundle is the persona/facts pair injected at activity startup
// (§4.9), fetched from persistence or the fallback file on failure.
type ContextBundle struct {
	PersonaSummary string
	Facts          []string
}

// History is a bounded rolling message ring. System messages are pinned
// (never evicted by the turn bound); the oldest non-system message is
// dropped first once MaxTurns user/assistant pairs have accumulated.
type History struct {
	mu       sync.Mutex
	pinned   []Message
	turns    []Message
	maxTurns int
}

// NewHistory creates a History bounded to maxTurns user/assistant round
// trips.
func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 1
	}
	return &History{maxTurns: maxTurns}
}

// AddSystem appends a pinned system message (persona, facts, seed
// prompts). Pinned messages are never evicted.
func (h *History) AddSystem(content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pinned = append(h.pinned, Message{Role: RoleSystem, Content: content})
}

// AddUser appends a user turn, evicting the oldest non-pinned message if
// the turn bound is exceeded.
func (h *History) AddUser(content string) {
	h.add(Message{Role: RoleUser, Content: content})
}

// AddAssistant appends an assistant turn, evicting the oldest non-pinned
// message if the turn bound is exceeded.
func (h *History) AddAssistant(content string) {
	h.add(Message{Role: RoleAssistant, Content: content})
}

func (h *History) add(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, m)
	// maxTurns counts round trips; each round trip is up to two
	// messages (user + assistant), so the cap on raw message count is
	// 2*maxTurns.
	cap := h.maxTurns * 2
	if len(h.turns) > cap {
		h.turns = h.turns[len(h.turns)-cap:]
	}
}

// Snapshot returns a defensive copy of the full message list: pinned
// system messages first, in insertion order, followed by the rolling
// turns.
func (h *History) Snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, 0, len(h.pinned)+len(h.turns))
	out = append(out, h.pinned...)
	out = append(out, h.turns...)
	return out
}

// TurnPairs reports how many complete user/assistant pairs are held,
// for enforcing the turn bound (invariant 4, §3.2).
func (h *History) TurnPairs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	pairs := 0
	for i := 0; i+1 < len(h.turns); i++ {
		if h.turns[i].Role == RoleUser && h.turns[i+1].Role == RoleAssistant {
			pairs++
			i++
		}
	}
	return pairs
}

// Clear drops the rolling turns but keeps pinned system messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// InjectContext appends pinned system messages for the persona summary
// and facts in bundle, ahead of the first user turn (§4.9). A zero-value
// bundle is a no-op.
func InjectContext(h *History, bundle ContextBundle) {
	if bundle.PersonaSummary != "" {
		h.AddSystem("User persona: " + bundle.PersonaSummary)
	}
	for _, fact := range bundle.Facts {
		h.AddSystem("Known fact: " + fact)
	}
}

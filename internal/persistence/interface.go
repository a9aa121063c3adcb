// Package persistence declares the storage surface the activity runtime
// consumes (spec §6.4) and provides a file/in-memory implementation for
// standalone operation and tests.
package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by ID finds nothing.
var ErrNotFound = errors.New("persistence: not found")

// ConversationMessage is one turn recorded against a conversation.
type ConversationMessage struct {
	Role string
	Text string
	At   time.Time
}

// JournalEntry is a saved or draft journal record.
type JournalEntry struct {
	ID      string
	User    string
	Title   string
	Body    string
	Mood    string
	Topics  []string
	IsDraft bool
	SavedAt time.Time
}

// GratitudeItem is a saved gratitude entry.
type GratitudeItem struct {
	ID      string
	User    string
	Text    string
	SavedAt time.Time
}

// Quote is a single inspirational quote.
type Quote struct {
	ID   string
	Text string
}

// ContextBundle carries persona/fact context injected into the dialog
// history at conversation start.
type ContextBundle struct {
	PersonaSummary string
	Facts          []string
}

// Store is the full persistence surface the activity runtime consumes.
// Every method is context-aware, following
// _examples/hammamikhairi-otto/internal/domain/ports.go's pattern.
type Store interface {
	StartConversation(ctx context.Context, title string) (string, error)
	AddMessage(ctx context.Context, conversationID, role, text string) error
	EndConversation(ctx context.Context, conversationID string) error

	UpsertJournal(ctx context.Context, user, title, body, mood string, topics []string, isDraft bool) (*JournalEntry, error)
	SaveGratitudeItem(ctx context.Context, user, text string) (*GratitudeItem, error)

	FetchNextQuote(ctx context.Context, user, religion, language string) (*Quote, error)
	MarkQuoteSeen(ctx context.Context, user, quoteID string) error

	GetUserLanguage(ctx context.Context, user string) (string, error)
	GetUserReligion(ctx context.Context, user string) (string, error)
	GetUserContextBundle(ctx context.Context, user string) (*ContextBundle, error)

	LogActivityStart(ctx context.Context, user, activityType, triggerType, timeOfDay string) (string, error)
	LogActivityCompletion(ctx context.Context, activityID string, completed bool) error
}

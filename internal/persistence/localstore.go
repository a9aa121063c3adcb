package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// Compile-time interface check.
var _ Store = (*LocalStore)(nil)

// LocalStore is an in-memory Store, optionally snapshotted to a JSON
// file on every journal or gratitude write; conversations, seen quotes
// and activity logs stay in memory only. Safe for concurrent access. Adapted from
// _examples/hammamikhairi-otto/internal/storage/memory.go's
// mutex-guarded map shape.
type LocalStore struct {
	mu  sync.RWMutex
	log logging.Logger

	snapshotPath string

	conversations map[string][]ConversationMessage
	journals      map[string]*JournalEntry
	gratitude     map[string]*GratitudeItem
	quotes        []Quote
	seenQuotes    map[string]map[string]bool // user -> quoteID -> seen
	userLanguage  map[string]string
	userReligion  map[string]string
	userContext   map[string]*ContextBundle
	activities    map[string]*activityLog
}

type activityLog struct {
	User         string
	ActivityType string
	TriggerType  string
	TimeOfDay    string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Completed    bool
}

type snapshot struct {
	Journals  map[string]*JournalEntry  `json:"journals"`
	Gratitude map[string]*GratitudeItem `json:"gratitude"`
}

// NewLocalStore builds an empty LocalStore. snapshotPath may be empty,
// in which case state is purely in-memory and never touches disk.
func NewLocalStore(snapshotPath string, log logging.Logger) *LocalStore {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	s := &LocalStore{
		log:           log,
		snapshotPath:  snapshotPath,
		conversations: make(map[string][]ConversationMessage),
		journals:      make(map[string]*JournalEntry),
		gratitude:     make(map[string]*GratitudeItem),
		seenQuotes:    make(map[string]map[string]bool),
		userLanguage:  make(map[string]string),
		userReligion:  make(map[string]string),
		userContext:   make(map[string]*ContextBundle),
		activities:    make(map[string]*activityLog),
	}
	if snapshotPath != "" {
		s.load()
	}
	return s
}

// SeedQuotes loads a fixed quote pool (e.g. read from a bundled JSON
// file at startup); it does not participate in the snapshot.
func (s *LocalStore) SeedQuotes(quotes []Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes = quotes
}

// SeedUser seeds the language/religion/context-bundle lookups for a
// user; used by tests and standalone operation in place of a real
// account service.
func (s *LocalStore) SeedUser(user, language, religion string, bundle *ContextBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLanguage[user] = language
	s.userReligion[user] = religion
	s.userContext[user] = bundle
}

func (s *LocalStore) StartConversation(ctx context.Context, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.conversations[id] = nil
	s.log.Debug("persistence: started conversation %s (%s)", id, title)
	return id, nil
}

func (s *LocalStore) AddMessage(ctx context.Context, conversationID, role, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return ErrNotFound
	}
	s.conversations[conversationID] = append(s.conversations[conversationID], ConversationMessage{
		Role: role, Text: text, At: time.Now(),
	})
	return nil
}

func (s *LocalStore) EndConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return ErrNotFound
	}
	s.log.Debug("persistence: ended conversation %s", conversationID)
	return nil
}

func (s *LocalStore) UpsertJournal(ctx context.Context, user, title, body, mood string, topics []string, isDraft bool) (*JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &JournalEntry{
		ID:      uuid.NewString(),
		User:    user,
		Title:   title,
		Body:    body,
		Mood:    mood,
		Topics:  topics,
		IsDraft: isDraft,
		SavedAt: time.Now(),
	}
	s.journals[entry.ID] = entry
	s.log.Info("persistence: journal saved for %s (draft=%t, topics=%d)", user, isDraft, len(topics))
	s.snapshotLocked()
	return entry, nil
}

func (s *LocalStore) SaveGratitudeItem(ctx context.Context, user, text string) (*GratitudeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &GratitudeItem{ID: uuid.NewString(), User: user, Text: text, SavedAt: time.Now()}
	s.gratitude[item.ID] = item
	s.snapshotLocked()
	return item, nil
}

func (s *LocalStore) FetchNextQuote(ctx context.Context, user, religion, language string) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := s.seenQuotes[user]
	for _, q := range s.quotes {
		if seen == nil || !seen[q.ID] {
			qCopy := q
			return &qCopy, nil
		}
	}
	return nil, nil
}

func (s *LocalStore) MarkQuoteSeen(ctx context.Context, user, quoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenQuotes[user] == nil {
		s.seenQuotes[user] = make(map[string]bool)
	}
	s.seenQuotes[user][quoteID] = true
	return nil
}

func (s *LocalStore) GetUserLanguage(ctx context.Context, user string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lang, ok := s.userLanguage[user]
	if !ok {
		return "en", nil
	}
	return lang, nil
}

func (s *LocalStore) GetUserReligion(ctx context.Context, user string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userReligion[user], nil
}

func (s *LocalStore) GetUserContextBundle(ctx context.Context, user string) (*ContextBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bundle, ok := s.userContext[user]
	if !ok {
		return nil, nil
	}
	return bundle, nil
}

func (s *LocalStore) LogActivityStart(ctx context.Context, user, activityType, triggerType, timeOfDay string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.activities[id] = &activityLog{
		User: user, ActivityType: activityType, TriggerType: triggerType,
		TimeOfDay: timeOfDay, StartedAt: time.Now(),
	}
	s.log.Debug("persistence: activity %s started for %s (trigger=%s)", activityType, user, triggerType)
	return id, nil
}

func (s *LocalStore) LogActivityCompletion(ctx context.Context, activityID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.activities[activityID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	log.CompletedAt = &now
	log.Completed = completed
	s.log.Debug("persistence: activity %s completed=%t", activityID, completed)
	return nil
}

// snapshotLocked writes the durable subset of state to snapshotPath via
// write-to-temp-then-rename, matching the atomic-write discipline
// intervention.RecordStore also follows. Caller must hold s.mu.
func (s *LocalStore) snapshotLocked() {
	if s.snapshotPath == "" {
		return
	}
	snap := snapshot{Journals: s.journals, Gratitude: s.gratitude}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.log.Error("persistence: snapshot marshal failed: %v", err)
		return
	}
	if err := writeFileAtomic(s.snapshotPath, data); err != nil {
		s.log.Error("persistence: snapshot write failed: %v", err)
	}
}

func (s *LocalStore) load() {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("persistence: snapshot corrupt, starting fresh: %v", err)
		return
	}
	if snap.Journals != nil {
		s.journals = snap.Journals
	}
	if snap.Gratitude != nil {
		s.gratitude = snap.Gratitude
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Package intervention implements the intervention suggestion poller
// (spec §6.5): an HTTP client that periodically asks whether to suggest
// an activity, and a persisted record of the latest response.
package intervention

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Decision is the trigger decision half of a poll response.
type Decision struct {
	TriggerIntervention bool    `json:"trigger_intervention"`
	ConfidenceScore     float64 `json:"confidence_score"`
	Reasoning           string  `json:"reasoning,omitempty"`
}

// RankedActivity is one entry in a Suggestion's ranked_activities list.
type RankedActivity struct {
	ActivityType string  `json:"activity_type"`
	Rank         int     `json:"rank"`
	Score        float64 `json:"score"`
}

// Suggestion is the suggestion half of a poll response.
type Suggestion struct {
	RankedActivities []RankedActivity `json:"ranked_activities"`
	Reasoning        string           `json:"reasoning,omitempty"`
}

// Record is the persisted document described in spec §6.7: the latest
// decision/suggestion pair plus the last poll time, read/written
// atomically. This corrects
// original_source/backend/src/utils/intervention_record.py, which wrote
// the file in place with no temp-file/rename step.
type Record struct {
	LatestDecision   *Decision   `json:"latest_decision"`
	LatestSuggestion *Suggestion `json:"latest_suggestion"`
	LastRequestTime  *time.Time  `json:"last_request_time"`
	LastResponseTime *time.Time  `json:"last_response_time"`
}

// RecordStore persists a Record to a single file via write-to-temp-then-rename.
type RecordStore struct {
	path string
	mu   sync.Mutex
}

func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Load reads the current record. A missing file is not an error; it
// returns a zero-value Record.
func (r *RecordStore) Load() (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("intervention: reading record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("intervention: record corrupt: %w", err)
	}
	return &rec, nil
}

// Save writes rec atomically: marshal, write to a sibling temp file,
// then rename over the target so a reader never observes a partial
// write.
func (r *RecordStore) Save(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("intervention: marshal record: %w", err)
	}

	dir := filepath.Dir(r.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("intervention: ensure record dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".intervention-record-*.tmp")
	if err != nil {
		return fmt.Errorf("intervention: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("intervention: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("intervention: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("intervention: rename into place: %w", err)
	}
	return nil
}

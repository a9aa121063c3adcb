package intervention

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordStoreSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervention_record.json")
	store := NewRecordStore(path)

	now := time.Now().Truncate(time.Second)
	rec := &Record{
		LatestDecision:   &Decision{TriggerIntervention: true, ConfidenceScore: 0.75},
		LatestSuggestion: &Suggestion{RankedActivities: []RankedActivity{{ActivityType: "quote", Rank: 1, Score: 0.5}}},
		LastRequestTime:  &now,
	}

	if err := store.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.LatestDecision == nil || !loaded.LatestDecision.TriggerIntervention {
		t.Fatalf("unexpected loaded decision: %+v", loaded.LatestDecision)
	}
	if loaded.LatestSuggestion == nil || len(loaded.LatestSuggestion.RankedActivities) != 1 {
		t.Fatalf("unexpected loaded suggestion: %+v", loaded.LatestSuggestion)
	}
}

func TestRecordStoreLoadMissingFileIsZeroValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	store := NewRecordStore(path)

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.LatestDecision != nil || rec.LatestSuggestion != nil {
		t.Fatalf("expected zero-value record, got %+v", rec)
	}
}

func TestRecordStoreNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intervention_record.json")
	store := NewRecordStore(path)

	if err := store.Save(&Record{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := filepathGlobTmp(dir)
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover temp files, found %v", entries)
	}
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, ".intervention-record-*.tmp"))
}

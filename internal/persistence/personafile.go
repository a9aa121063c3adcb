package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// personaRecord is the on-disk shape spec.md §6.7 describes: written
// whenever a DB fetch succeeds, read back on DB failure.
type personaRecord struct {
	UserID         string   `json:"user_id"`
	PersonaSummary string   `json:"persona_summary,omitempty"`
	Facts          []string `json:"facts,omitempty"`
}

// PersonaFile is the user-persona fallback store (spec.md §6.7):
// a single JSON file keyed by user, read on persistence failure and
// refreshed on every successful fetch so the fallback never goes stale
// by more than one activity run.
type PersonaFile struct {
	path string
	mu   sync.Mutex
}

func NewPersonaFile(path string) *PersonaFile {
	return &PersonaFile{path: path}
}

// Save writes (or refreshes) the fallback record for user, atomically.
func (p *PersonaFile) Save(user string, bundle ContextBundle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	records, err := p.loadAll()
	if err != nil {
		return err
	}
	records[user] = personaRecord{UserID: user, PersonaSummary: bundle.PersonaSummary, Facts: bundle.Facts}
	return p.writeAll(records)
}

// Load returns the fallback record for user, or (nil, nil) if none was
// ever saved.
func (p *PersonaFile) Load(user string) (*ContextBundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	records, err := p.loadAll()
	if err != nil {
		return nil, err
	}
	rec, ok := records[user]
	if !ok {
		return nil, nil
	}
	return &ContextBundle{PersonaSummary: rec.PersonaSummary, Facts: rec.Facts}, nil
}

func (p *PersonaFile) loadAll() (map[string]personaRecord, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return map[string]personaRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records map[string]personaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]personaRecord{}
	}
	return records, nil
}

func (p *PersonaFile) writeAll(records map[string]personaRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".persona-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, p.path)
}

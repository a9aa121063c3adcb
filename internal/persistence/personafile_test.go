package persistence

import (
	"path/filepath"
	"testing"
)

func TestPersonaFileSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.json")
	pf := NewPersonaFile(path)

	if err := pf.Save("u1", ContextBundle{PersonaSummary: "enjoys hiking", Facts: []string{"has a dog"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := pf.Load("u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.PersonaSummary != "enjoys hiking" || len(got.Facts) != 1 {
		t.Fatalf("unexpected bundle: %+v", got)
	}
}

func TestPersonaFileLoadMissingUserIsNil(t *testing.T) {
	pf := NewPersonaFile(filepath.Join(t.TempDir(), "persona.json"))
	got, err := pf.Load("nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil bundle, got %+v", got)
	}
}

func TestPersonaFileSaveRefreshesExistingUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.json")
	pf := NewPersonaFile(path)

	if err := pf.Save("u1", ContextBundle{PersonaSummary: "v1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := pf.Save("u1", ContextBundle{PersonaSummary: "v2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := pf.Load("u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PersonaSummary != "v2" {
		t.Fatalf("expected refreshed summary, got %q", got.PersonaSummary)
	}
}

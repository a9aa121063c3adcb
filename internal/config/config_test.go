package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsEmptyTerminationPhrases(t *testing.T) {
	cfg := Default()
	cfg.TerminationPhrases = nil
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for empty termination phrases")
	}
}

func TestValidateRejectsBadNudgeDelay(t *testing.T) {
	cfg := Default()
	cfg.NudgePreDelayMS = 5000
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for out-of-range nudge delay")
	}
}

func TestTimingForFallsBackToDefault(t *testing.T) {
	cfg := Default()
	got := cfg.TimingFor("journal")
	want := cfg.ActivityTimings["default"]
	if got != want {
		t.Errorf("expected fallback to default timing, got %+v", got)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path should succeed: %v", err)
	}
	if cfg.MaxTurns != Default().MaxTurns {
		t.Errorf("expected default max turns, got %d", cfg.MaxTurns)
	}
}

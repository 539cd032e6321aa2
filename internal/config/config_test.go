package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Calendar.GapThresholdMinutes != 15 {
		t.Errorf("GapThresholdMinutes = %v, want 15", cfg.Calendar.GapThresholdMinutes)
	}
	if cfg.Autosave.QuietPeriod != 600*time.Millisecond {
		t.Errorf("QuietPeriod = %v, want 600ms", cfg.Autosave.QuietPeriod)
	}
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("timezone: America/New_York\ncalendar:\n  gap_threshold_minutes: 20\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Calendar.GapThresholdMinutes != 20 {
		t.Errorf("GapThresholdMinutes = %v, want 20", cfg.Calendar.GapThresholdMinutes)
	}
	if cfg.Calendar.GapWeight != 10 {
		t.Errorf("GapWeight not defaulted: %v", cfg.Calendar.GapWeight)
	}
	if cfg.Retention.MaxAgeDays != 30 {
		t.Errorf("MaxAgeDays not defaulted: %v", cfg.Retention.MaxAgeDays)
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Location: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timezone: [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

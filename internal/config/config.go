package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarConfig holds the tunables of the calendar aggregation engine.
// The fragmentation formula is heuristic: more gaps must always raise the
// score, and the score is capped. The constants themselves are adjustable.
type CalendarConfig struct {
	// GapThresholdMinutes is the minimum free interval between two
	// consecutive events that counts as a schedule gap.
	GapThresholdMinutes float64 `yaml:"gap_threshold_minutes"`

	// GapWeight is the score contribution of each counted gap.
	GapWeight float64 `yaml:"gap_weight"`

	// GapMinutesDivisor scales accumulated gap minutes into score points.
	GapMinutesDivisor float64 `yaml:"gap_minutes_divisor"`

	// MaxScore caps the fragmentation score.
	MaxScore float64 `yaml:"max_score"`

	// HourScale is the vertical layout units per hour for time-grid views.
	HourScale float64 `yaml:"hour_scale"`
}

// AutosaveConfig controls the debounced document content persister.
type AutosaveConfig struct {
	// QuietPeriod is how long a document must stay idle before its
	// buffered content is persisted.
	QuietPeriod time.Duration `yaml:"quiet_period"`
}

// RetentionConfig controls the archived-document sweeper.
type RetentionConfig struct {
	// Schedule is a cron expression for sweep runs.
	Schedule string `yaml:"schedule"`

	// MaxAgeDays is how long a document may stay in the trash before the
	// sweeper removes it permanently.
	MaxAgeDays int `yaml:"max_age_days"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used for calendar day boundaries.
	Timezone string `yaml:"timezone"`

	Calendar  CalendarConfig  `yaml:"calendar"`
	Autosave  AutosaveConfig  `yaml:"autosave"`
	Retention RetentionConfig `yaml:"retention"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "UTC",
		Calendar: CalendarConfig{
			GapThresholdMinutes: 15,
			GapWeight:           10,
			GapMinutesDivisor:   60,
			MaxScore:            100,
			HourScale:           64,
		},
		Autosave: AutosaveConfig{
			QuietPeriod: 600 * time.Millisecond,
		},
		Retention: RetentionConfig{
			Schedule:   "0 3 * * *",
			MaxAgeDays: 30,
		},
	}
}

// Load reads the YAML config at path. A missing file yields the defaults so
// that a bare deployment works without any config at all.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Calendar.GapThresholdMinutes <= 0 {
		c.Calendar.GapThresholdMinutes = def.Calendar.GapThresholdMinutes
	}
	if c.Calendar.GapWeight <= 0 {
		c.Calendar.GapWeight = def.Calendar.GapWeight
	}
	if c.Calendar.GapMinutesDivisor <= 0 {
		c.Calendar.GapMinutesDivisor = def.Calendar.GapMinutesDivisor
	}
	if c.Calendar.MaxScore <= 0 {
		c.Calendar.MaxScore = def.Calendar.MaxScore
	}
	if c.Calendar.HourScale <= 0 {
		c.Calendar.HourScale = def.Calendar.HourScale
	}
	if c.Autosave.QuietPeriod <= 0 {
		c.Autosave.QuietPeriod = def.Autosave.QuietPeriod
	}
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = def.Retention.Schedule
	}
	if c.Retention.MaxAgeDays <= 0 {
		c.Retention.MaxAgeDays = def.Retention.MaxAgeDays
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	_ "time/tzdata"
)

func TestLoad_CreatesDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != defaultTimezone || cfg.HolidayFeed.Zip != defaultZip || cfg.HolidayFeed.PadDays != defaultPadDays {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_FileValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `timezone: America/Chicago
schedule: /tmp/schedule.ics
error_policy: skip
holiday_feed:
  zip: "60637"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "America/Chicago" || cfg.Schedule != "/tmp/schedule.ics" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HolidayFeed.Zip != "60637" || cfg.HolidayFeed.PadDays != defaultPadDays {
		t.Fatalf("unexpected holiday feed %+v", cfg.HolidayFeed)
	}
	if len(cfg.QuirkProductIDs) != 1 || cfg.QuirkProductIDs[0] != defaultQuirkID {
		t.Fatalf("expected default quirk ids, got %v", cfg.QuirkProductIDs)
	}
	if p, err := cfg.Policy(); err != nil || p.String() != "skip" {
		t.Fatalf("unexpected policy %v, %v", p, err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timezone: America/Chicago\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHAGIMCAL_TIMEZONE", "Asia/Jerusalem")
	t.Setenv("CHAGIMCAL_HOLIDAY_ZIP", "10001")
	t.Setenv("CHAGIMCAL_PAD_DAYS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Asia/Jerusalem" {
		t.Fatalf("timezone override not applied: %q", cfg.Timezone)
	}
	if cfg.HolidayFeed.Zip != "10001" || cfg.HolidayFeed.PadDays != 3 {
		t.Fatalf("holiday overrides not applied: %+v", cfg.HolidayFeed)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Timezone = "Nowhere/Special"
	cfg.ErrorPolicy = "lenient"
	cfg.RefreshCron = "every morning"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"Nowhere/Special", "lenient", "every morning"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad_ZeroPadDays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("holiday_feed:\n  pad_days: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HolidayFeed.PadDays != 0 {
		t.Fatalf("explicit zero pad_days reset to %d", cfg.HolidayFeed.PadDays)
	}
	if cfg.HolidayFeed.Zip != defaultZip {
		t.Fatalf("absent zip lost its default: %q", cfg.HolidayFeed.Zip)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero padding should be valid: %v", err)
	}

	t.Setenv("CHAGIMCAL_PAD_DAYS", "0")
	if err := os.WriteFile(path, []byte("holiday_feed:\n  pad_days: 5\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HolidayFeed.PadDays != 0 {
		t.Fatalf("env zero pad_days not applied: %d", cfg.HolidayFeed.PadDays)
	}

	cfg.HolidayFeed.PadDays = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "pad_days") {
		t.Fatalf("expected negative pad_days error, got %v", err)
	}
}

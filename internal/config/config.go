package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. CHAGIMCAL_TIMEZONE.
const EnvPrefix = "CHAGIMCAL"

const (
	defaultListen     = "127.0.0.1:8080"
	defaultTimezone   = "America/New_York"
	defaultRefresh    = "0 6 * * *"
	defaultZip        = "19104"
	defaultPadDays    = 7
	defaultEmailsPath = "chagimChelperEmails.txt"
	defaultQuirkID    = "Penn Labs"
)

// HolidayFeedConfig describes where holiday data comes from.
type HolidayFeedConfig struct {
	// BaseURL is the feed endpoint. Empty means the public hebcal endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Zip selects the location used for candle-lighting times.
	Zip string `yaml:"zip" json:"zip"`
	// PadDays widens the schedule's date bounds on both sides before the
	// feed is requested.
	PadDays int `yaml:"pad_days" json:"pad_days"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone every instant is normalized to (the
	// institution's local zone).
	Timezone string `yaml:"timezone" json:"timezone"`

	// Schedule is a path or http(s) URL of the class calendar export.
	Schedule string `yaml:"schedule" json:"schedule"`

	// Name signs generated emails.
	Name string `yaml:"name" json:"name"`

	// QuirkProductIDs are PRODID values of exporters that mark local times
	// as UTC.
	QuirkProductIDs []string `yaml:"quirk_product_ids" json:"quirk_product_ids"`

	// ErrorPolicy is "abort" (default) or "skip".
	ErrorPolicy string `yaml:"error_policy" json:"error_policy"`

	// LogLevel is debug, info or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CacheDir holds HTTP cache entries. Empty disables caching.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Listen is the HTTP listen address of the serve command.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a standard cron spec for recomputing conflicts while
	// serving.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// EmailsPath is where the emails command writes drafts.
	EmailsPath string `yaml:"emails_path" json:"emails_path"`

	HolidayFeed HolidayFeedConfig `yaml:"holiday_feed" json:"holiday_feed"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:        defaultTimezone,
		QuirkProductIDs: []string{defaultQuirkID},
		ErrorPolicy:     "abort",
		LogLevel:        "info",
		Listen:          defaultListen,
		RefreshCron:     defaultRefresh,
		EmailsPath:      defaultEmailsPath,
		HolidayFeed: HolidayFeedConfig{
			Zip:     defaultZip,
			PadDays: defaultPadDays,
		},
	}
}

// Normalize fills in empty string and list values with defaults so that
// partially filled configs still behave. Numeric settings are left alone
// because zero is meaningful for them.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.QuirkProductIDs == nil {
		c.QuirkProductIDs = []string{defaultQuirkID}
	}
	if c.ErrorPolicy == "" {
		c.ErrorPolicy = "abort"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.EmailsPath == "" {
		c.EmailsPath = defaultEmailsPath
	}
	if c.HolidayFeed.Zip == "" {
		c.HolidayFeed.Zip = defaultZip
	}
}

// Validate checks the values that would otherwise fail deep in a run.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.HolidayFeed.PadDays < 0 {
		errs = append(errs, fmt.Errorf("holiday_feed.pad_days %d is negative", c.HolidayFeed.PadDays))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}
	return errors.Join(errs...)
}

// Location loads the canonical zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Policy() (model.ErrorPolicy, error) {
	return model.ParseErrorPolicy(c.ErrorPolicy)
}

// Load loads configuration from the given YAML path, then applies
// CHAGIMCAL_* environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, it is unmarshalled over the defaults and
//     normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		// Keys absent from the file keep their defaults; an explicit zero
		// pad_days stays zero.
		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overrides scalar settings from the environment.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	strs := map[string]*string{
		"timezone":     &cfg.Timezone,
		"schedule":     &cfg.Schedule,
		"name":         &cfg.Name,
		"error_policy": &cfg.ErrorPolicy,
		"log_level":    &cfg.LogLevel,
		"cache_dir":    &cfg.CacheDir,
		"listen":       &cfg.Listen,
		"refresh":      &cfg.RefreshCron,
		"emails_path":  &cfg.EmailsPath,
		"holiday_zip":  &cfg.HolidayFeed.Zip,
		"holiday_url":  &cfg.HolidayFeed.BaseURL,
	}
	for key, dst := range strs {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	_ = v.BindEnv("pad_days")
	if v.IsSet("pad_days") {
		cfg.HolidayFeed.PadDays = v.GetInt("pad_days")
	}
}

// Save writes the given configuration to path atomically (temp file +
// rename) with 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chagimcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chagimcal/internal/config"
	appLog "chagimcal/internal/log"
)

const version = "0.1.0"

var (
	configPath       string
	scheduleOverride string
	policyOverride   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chagimcal",
	Short: "Find class meetings that fall on Jewish holidays",
	Long: `chagimcal reads a class schedule exported as an iCalendar file or link,
requests holiday times for the schedule's date range, and reports every class
meeting that overlaps a holiday.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&scheduleOverride, "schedule", "s", "", "Schedule file path or URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&policyOverride, "error-policy", "", "abort or skip malformed input (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "chagimcal", "config.yaml")
}

// loadConfig loads, overrides and validates configuration for every command.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if scheduleOverride != "" {
		cfg.Schedule = scheduleOverride
	}
	if policyOverride != "" {
		cfg.ErrorPolicy = policyOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lvl, _ := appLog.ParseLevel(cfg.LogLevel)
	appLog.SetLevel(lvl)
	appLog.Debug("effective config",
		"config_path", configPath,
		"timezone", cfg.Timezone,
		"error_policy", cfg.ErrorPolicy,
		"pad_days", cfg.HolidayFeed.PadDays,
		"zip", cfg.HolidayFeed.Zip,
		"cache_dir", cfg.CacheDir,
		"version", version,
	)
	return nil
}

func requireSchedule() error {
	if cfg.Schedule == "" {
		return fmt.Errorf("no schedule given; pass --schedule or set schedule in %s", configPath)
	}
	return nil
}

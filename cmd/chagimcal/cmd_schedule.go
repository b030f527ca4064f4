package main

import (
	"os"

	"github.com/spf13/cobra"

	"chagimcal/internal/app"
	"chagimcal/internal/report"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Parse the schedule and list every course meeting",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if err := requireSchedule(); err != nil {
		return err
	}
	runner, err := app.NewRunner(cfg)
	if err != nil {
		return err
	}
	parsed, err := runner.LoadSchedule(cmd.Context(), cfg.Schedule)
	if err != nil {
		return err
	}
	return report.WriteSchedule(os.Stdout, parsed.Schedule)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"chagimcal/internal/app"
	"chagimcal/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Print every class meeting that conflicts with a holiday",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := requireSchedule(); err != nil {
		return err
	}
	runner, err := app.NewRunner(cfg)
	if err != nil {
		return err
	}
	res, err := runner.Run(cmd.Context(), cfg.Schedule)
	if err != nil {
		return err
	}
	return report.WriteConflicts(os.Stdout, res.Conflicts)
}

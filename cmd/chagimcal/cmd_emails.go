package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chagimcal/internal/app"
	appLog "chagimcal/internal/log"
	"chagimcal/internal/report"
)

var (
	emailsOut  string
	emailsName string
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Draft one absence email per course with conflicts",
	Long: `Draft one email per course that has holiday conflicts, listing each
meeting that will be missed. Drafts are written to a text file.

Examples:
  chagimcal emails --schedule ~/Downloads/schedule.ics --name "Dana Levi"
  chagimcal emails --out drafts.txt`,
	RunE: runEmails,
}

func init() {
	emailsCmd.Flags().StringVarP(&emailsOut, "out", "o", "", "Output file (overrides emails_path)")
	emailsCmd.Flags().StringVar(&emailsName, "name", "", "Signature name (overrides config name)")
	rootCmd.AddCommand(emailsCmd)
}

func runEmails(cmd *cobra.Command, _ []string) error {
	if err := requireSchedule(); err != nil {
		return err
	}
	out := cfg.EmailsPath
	if emailsOut != "" {
		out = emailsOut
	}
	name := cfg.Name
	if emailsName != "" {
		name = emailsName
	}

	runner, err := app.NewRunner(cfg)
	if err != nil {
		return err
	}
	res, err := runner.Run(cmd.Context(), cfg.Schedule)
	if err != nil {
		return err
	}
	if err := report.WriteConflicts(os.Stdout, res.Conflicts); err != nil {
		return err
	}
	if len(res.Conflicts) == 0 {
		return nil
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	n, err := report.WriteEmails(f, res.Conflicts, name)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	appLog.Info("emails written", "path", out, "count", n)
	fmt.Fprintf(os.Stdout, "Email(s) generated into the file %s.\n", out)
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"chagimcal/internal/app"
	appLog "chagimcal/internal/log"
	"chagimcal/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conflicts over HTTP, recomputing on the refresh schedule",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireSchedule(); err != nil {
		return err
	}
	runner, err := app.NewRunner(cfg)
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := web.NewServer(cfg, runner)
	if _, err := srv.Refresh(ctx); err != nil {
		// Keep serving; handlers retry on demand.
		appLog.Error("initial run failed", err)
	}

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.RefreshCron, func() {
		if _, err := srv.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "refresh", cfg.RefreshCron)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("chagimcal exiting", "pid", os.Getpid())
	return nil
}

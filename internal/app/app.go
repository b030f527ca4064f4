// Package app wires loading, parsing and conflict detection into one run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chagimcal/internal/config"
	"chagimcal/internal/conflict"
	"chagimcal/internal/fetch"
	"chagimcal/internal/hebcal"
	"chagimcal/internal/ics"
	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

// HolidaySource yields holiday intervals for a date range.
type HolidaySource interface {
	Holidays(ctx context.Context, start, end model.Date) (hebcal.Result, error)
}

// Runner executes the schedule → holidays → conflicts pipeline.
type Runner struct {
	Fetcher  *fetch.Fetcher
	Holidays HolidaySource

	Location        *time.Location
	Policy          model.ErrorPolicy
	QuirkProductIDs []string
	// PadDays widens the schedule bounds before requesting holidays.
	PadDays int
}

// Result is the output of one run.
type Result struct {
	RunID     string                  `json:"run_id"`
	Schedule  *model.Schedule         `json:"-"`
	Holidays  []model.HolidayInterval `json:"holidays"`
	Conflicts []model.Conflict        `json:"conflicts"`
	// RangeStart and RangeEnd are the padded dates requested from the feed.
	RangeStart model.Date `json:"range_start"`
	RangeEnd   model.Date `json:"range_end"`
	// Skipped lists blocks and records dropped under the skip policy.
	Skipped     []string  `json:"skipped,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config) (*Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	f := fetch.NewFetcher(cfg.CacheDir)
	return &Runner{
		Fetcher: f,
		Holidays: &hebcal.Client{
			Fetcher:  f,
			BaseURL:  cfg.HolidayFeed.BaseURL,
			Zip:      cfg.HolidayFeed.Zip,
			Location: loc,
			Policy:   policy,
		},
		Location:        loc,
		Policy:          policy,
		QuirkProductIDs: cfg.QuirkProductIDs,
		PadDays:         cfg.HolidayFeed.PadDays,
	}, nil
}

// LoadSchedule reads and parses the calendar at location (path or URL).
func (r *Runner) LoadSchedule(ctx context.Context, location string) (ics.ParseResult, error) {
	res, err := r.Fetcher.Load(ctx, "schedule", location)
	if err != nil {
		return ics.ParseResult{}, fmt.Errorf("load schedule: %w", err)
	}
	parsed, err := ics.ParseSchedule(res.Body, ics.Options{
		Location:        r.Location,
		QuirkProductIDs: r.QuirkProductIDs,
		Policy:          r.Policy,
	})
	if err != nil {
		return ics.ParseResult{}, fmt.Errorf("parse schedule: %w", err)
	}
	return parsed, nil
}

// Run computes every holiday conflict for the calendar at location. A
// schedule failure stops the run before any holiday request is made.
func (r *Runner) Run(ctx context.Context, location string) (*Result, error) {
	runID := uuid.NewString()
	appLog.Info("run start", "run_id", runID, "error_policy", r.Policy, "zone", r.Location)

	parsed, err := r.LoadSchedule(ctx, location)
	if err != nil {
		return nil, err
	}
	s := parsed.Schedule

	res := &Result{
		RunID:      runID,
		Schedule:   s,
		RangeStart: s.FirstDate.AddDays(-r.PadDays),
		RangeEnd:   s.LastDate.AddDays(r.PadDays),
	}
	for _, e := range parsed.Skipped {
		res.Skipped = append(res.Skipped, e.Error())
	}

	hol, err := r.Holidays.Holidays(ctx, res.RangeStart, res.RangeEnd)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}
	for _, e := range hol.Skipped {
		res.Skipped = append(res.Skipped, e.Error())
	}

	res.Holidays = hol.Holidays
	res.Conflicts = conflict.Find(s, hol.Holidays)
	res.GeneratedAt = time.Now().In(r.Location)

	appLog.Info("run completed",
		"run_id", runID,
		"courses", len(s.Courses),
		"holidays", len(res.Holidays),
		"conflicts", len(res.Conflicts),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"chagimcal/internal/fetch"
	"chagimcal/internal/hebcal"
	"chagimcal/internal/ics"
	"chagimcal/internal/model"
)

type fakeHolidays struct {
	start, end model.Date
	calls      int
	result     hebcal.Result
	err        error
}

func (f *fakeHolidays) Holidays(_ context.Context, start, end model.Date) (hebcal.Result, error) {
	f.calls++
	f.start, f.end = start, end
	return f.result, f.err
}

const scheduleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:HIST 0100\r\n" +
	"DTSTART;TZID=America/New_York:20240105T190000\r\n" +
	"DTEND;TZID=America/New_York:20240105T200000\r\n" +
	"RRULE:FREQ=WEEKLY;UNTIL=20240426T235959Z;BYDAY=FR\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func newRunner(t *testing.T, src HolidaySource) (*Runner, string) {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	path := filepath.Join(t.TempDir(), "schedule.ics")
	if err := os.WriteFile(path, []byte(scheduleICS), 0o600); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	return &Runner{
		Fetcher:  fetch.NewFetcher(""),
		Holidays: src,
		Location: ny,
		PadDays:  7,
	}, path
}

func TestRun(t *testing.T) {
	t.Parallel()

	src := &fakeHolidays{}
	r, path := newRunner(t, src)
	src.result = hebcal.Result{Holidays: []model.HolidayInterval{{
		EventName: "Shabbat",
		Interval: model.Interval{
			Start: time.Date(2024, 1, 5, 18, 0, 0, 0, r.Location),
			End:   time.Date(2024, 1, 6, 19, 0, 0, 0, r.Location),
		},
	}}}

	res, err := r.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
	if src.start != (model.Date{Year: 2023, Month: time.December, Day: 29}) ||
		src.end != (model.Date{Year: 2024, Month: time.May, Day: 3}) {
		t.Fatalf("unexpected padded range %s..%s", src.start, src.end)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Meetings[0].CourseName != "HIST 0100" {
		t.Fatalf("unexpected conflicts %v", res.Conflicts)
	}
}

func TestRun_ScheduleFailureSkipsHolidayRequest(t *testing.T) {
	t.Parallel()

	src := &fakeHolidays{}
	r, _ := newRunner(t, src)
	bad := filepath.Join(t.TempDir(), "empty.ics")
	if err := os.WriteFile(bad, []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := r.Run(context.Background(), bad)
	if !errors.Is(err, ics.ErrEmptySchedule) {
		t.Fatalf("expected empty schedule error, got %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("holiday source called %d times", src.calls)
	}
}

func TestRun_HolidayErrorAndSkipped(t *testing.T) {
	t.Parallel()

	src := &fakeHolidays{err: errors.New("feed down")}
	r, path := newRunner(t, src)
	if _, err := r.Run(context.Background(), path); err == nil || !strings.Contains(err.Error(), "feed down") {
		t.Fatalf("expected holiday error, got %v", err)
	}

	src.err = nil
	src.result = hebcal.Result{Skipped: []error{errors.New("feed item #3 bad")}}
	res, err := r.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Skipped) != 1 || len(res.Conflicts) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

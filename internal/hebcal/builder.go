package hebcal

import (
	"fmt"
	"strings"
	"time"

	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

// DanglingGroupSpan is the assumed length of a holiday whose Havdalah record
// falls outside the requested feed range. Meetings past that horizon cannot be
// reported anyway.
const DanglingGroupSpan = 73 * time.Hour

type builderState int

const (
	awaitingStart builderState = iota
	inGroup
)

func (s builderState) String() string {
	if s == inGroup {
		return "in-group"
	}
	return "awaiting-start"
}

// Builder groups feed records into holiday intervals.
//
// In awaiting-start it looks for a candle-lighting record, which opens a group
// at that record's date. In in-group, yom tov records contribute names and a
// Havdalah record closes the group at its date.
type Builder struct {
	loc    *time.Location
	policy model.ErrorPolicy

	state   builderState
	index   int
	start   time.Time
	names   []string
	out     []model.HolidayInterval
	skipped []error
}

// NewBuilder returns a Builder that expresses intervals in loc.
func NewBuilder(loc *time.Location, policy model.ErrorPolicy) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc, policy: policy}
}

// State reports "awaiting-start" or "in-group".
func (b *Builder) State() string {
	return b.state.String()
}

// Add consumes the next record in feed order.
func (b *Builder) Add(rec Record) error {
	idx := b.index
	b.index++

	switch b.state {
	case awaitingStart:
		if rec[KeyTitleOrig] != CandleLighting {
			return nil
		}
		start, err := b.parseDate(idx, rec)
		if err != nil {
			return b.reject(err)
		}
		b.state = inGroup
		b.start = start
		b.names = nil

	case inGroup:
		if rec[KeyYomTov] == "true" {
			if name, ok := rec[KeyTitle]; ok {
				b.names = append(b.names, name)
			}
			return nil
		}
		if rec[KeyTitleOrig] != Havdalah {
			return nil
		}
		end, err := b.parseDate(idx, rec)
		if err == nil && end.Before(b.start) {
			err = &RecordError{Index: idx, Fragment: rec[KeyDate],
				Err: fmt.Errorf("%w: havdalah before candle lighting", ErrMalformedFeed)}
		}
		if err != nil {
			if rerr := b.reject(err); rerr != nil {
				return rerr
			}
			// A rejected Havdalah still ends the group.
			b.close(b.start.Add(DanglingGroupSpan))
			return nil
		}
		b.close(end)
	}
	return nil
}

// Finish closes a dangling group with DanglingGroupSpan and returns every
// interval in feed order.
func (b *Builder) Finish() []model.HolidayInterval {
	if b.state == inGroup {
		appLog.Debug("holiday group without havdalah; using fallback end",
			"start", b.start.Format(time.RFC3339), "span", DanglingGroupSpan)
		b.close(b.start.Add(DanglingGroupSpan))
	}
	return b.out
}

// Skipped returns the errors tolerated under model.SkipInvalid.
func (b *Builder) Skipped() []error {
	return b.skipped
}

func (b *Builder) close(end time.Time) {
	iv := model.Interval{Start: b.start, End: end}
	names := b.names
	if len(names) == 0 {
		names = []string{defaultName(iv)}
	}
	b.out = append(b.out, model.HolidayInterval{EventName: joinNames(names), Interval: iv})
	b.state = awaitingStart
	b.names = nil
}

func (b *Builder) parseDate(idx int, rec Record) (time.Time, error) {
	raw, ok := rec[KeyDate]
	if !ok {
		return time.Time{}, &RecordError{Index: idx, Fragment: rec[KeyTitle],
			Err: fmt.Errorf("%w: %s record has no date", ErrMalformedFeed, rec[KeyTitleOrig])}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &RecordError{Index: idx, Fragment: raw,
			Err: fmt.Errorf("%w: date is not an offset date-time", ErrMalformedFeed)}
	}
	return t.In(b.loc), nil
}

// reject returns err under AbortOnError and records it otherwise. A rejected
// candle lighting leaves the builder awaiting a start; a rejected Havdalah
// closes the open group with DanglingGroupSpan.
func (b *Builder) reject(err error) error {
	if b.policy == model.AbortOnError {
		return err
	}
	appLog.Error("feed record skipped", err, "state", b.state.String())
	b.skipped = append(b.skipped, err)
	return nil
}

// BuildIntervals runs records through a Builder.
func BuildIntervals(records []Record, loc *time.Location, policy model.ErrorPolicy) ([]model.HolidayInterval, []error, error) {
	b := NewBuilder(loc, policy)
	for _, rec := range records {
		if err := b.Add(rec); err != nil {
			return nil, nil, err
		}
	}
	return b.Finish(), b.Skipped(), nil
}

// containsShabbat reports whether iv covers a Friday-to-Saturday span.
func containsShabbat(iv model.Interval) bool {
	if iv.Duration() >= 7*24*time.Hour {
		return true
	}
	start := isoWeekday(iv.Start.Weekday())
	end := isoWeekday(iv.End.Weekday())
	if start > end {
		return start <= isoWeekday(time.Friday)
	}
	return start <= isoWeekday(time.Friday) && end >= isoWeekday(time.Saturday)
}

// isoWeekday numbers Monday 1 through Sunday 7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func defaultName(iv model.Interval) string {
	if containsShabbat(iv) {
		return "Shabbat"
	}
	return "Yom Tov"
}

func joinNames(names []string) string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = cleanName(n)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return strings.Join(out, "/")
}

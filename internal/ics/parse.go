package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

// DefaultQuirkProductID is the PRODID of an exporter that stamps local
// wall-clock times with a UTC marker.
const DefaultQuirkProductID = "Penn Labs"

const (
	layoutDateTime = "20060102T150405"
	layoutDate     = "20060102"
)

// Options controls how a calendar body becomes a Schedule.
type Options struct {
	// Location is the canonical zone. Floating times are read in it and every
	// resolved timestamp is converted to it. Nil means UTC.
	Location *time.Location

	// QuirkProductIDs lists PRODID values whose UTC-marked times are really
	// local times in Location.
	QuirkProductIDs []string

	Policy model.ErrorPolicy
}

// ParseResult wraps the parsed schedule and, under model.SkipInvalid, the
// errors of the blocks that were dropped.
type ParseResult struct {
	Schedule *model.Schedule
	Skipped  []error
}

// eventBlock is what one VEVENT yields before classification.
type eventBlock struct {
	summary  string
	start    time.Time
	end      time.Time
	days     model.WeekdaySet
	until    model.Date
	hasUntil bool
}

// ParseSchedule parses calendar text into a Schedule.
//
//   - Line unfolding and property/parameter tokenizing are left to the
//     underlying iCalendar library.
//   - An event with a BYDAY rule becomes a *model.Weekly course; anything
//     else becomes a *model.Singleton.
//   - Under model.AbortOnError the first bad block fails the whole parse and
//     no partial schedule is returned.
func ParseSchedule(body []byte, opts Options) (ParseResult, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ParseResult{}, fmt.Errorf("%w: empty calendar body", ErrMalformedBlock)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return ParseResult{}, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}

	quirk := hasExportQuirk(cal, opts.QuirkProductIDs)
	if quirk {
		appLog.Debug("ics exporter quirk enabled; UTC-marked times read as local", "zone", opts.Location.String())
	}

	var (
		result ParseResult
		blocks []eventBlock
	)
	for i, ve := range cal.Events() {
		blk, err := parseEvent(i, ve, opts, quirk)
		if err != nil {
			if opts.Policy == model.AbortOnError {
				appLog.Error("ics event block rejected", err)
				return ParseResult{}, err
			}
			appLog.Error("ics event block skipped", err)
			result.Skipped = append(result.Skipped, err)
			continue
		}
		blocks = append(blocks, blk)
	}

	schedule, err := buildSchedule(blocks, opts.Location)
	if err != nil {
		return ParseResult{}, err
	}
	result.Schedule = schedule

	appLog.Info("ics parse completed",
		"course_count", len(schedule.Courses),
		"skipped", len(result.Skipped),
		"first_date", schedule.FirstDate,
		"last_date", schedule.LastDate,
	)
	return result, nil
}

func hasExportQuirk(cal *ical.Calendar, ids []string) bool {
	for _, p := range cal.CalendarProperties {
		if !strings.EqualFold(p.IANAToken, "PRODID") {
			continue
		}
		val := strings.TrimSpace(p.Value)
		for _, id := range ids {
			if val == id {
				return true
			}
		}
	}
	return false
}

func parseEvent(index int, ve *ical.VEvent, opts Options, quirk bool) (eventBlock, error) {
	var blk eventBlock

	fail := func(prop, value string, err error) (eventBlock, error) {
		return eventBlock{}, &BlockError{Index: index, Summary: blk.summary, Property: prop, Value: value, Err: err}
	}

	summary := ve.GetProperty(ical.ComponentPropertySummary)
	if summary == nil {
		return fail("SUMMARY", "", fmt.Errorf("%w: missing SUMMARY", ErrMalformedBlock))
	}
	blk.summary = summary.Value

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return fail("DTSTART", "", fmt.Errorf("%w: missing DTSTART", ErrMalformedBlock))
	}
	start, err := resolveTimestamp(dtStart, false, opts.Location, quirk)
	if err != nil {
		return fail("DTSTART", dtStart.Value, err)
	}
	blk.start = start

	dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd)
	if dtEnd == nil {
		return fail("DTEND", "", fmt.Errorf("%w: missing DTEND", ErrMalformedBlock))
	}
	end, err := resolveTimestamp(dtEnd, true, opts.Location, quirk)
	if err != nil {
		return fail("DTEND", dtEnd.Value, err)
	}
	if end.Before(start) {
		return fail("DTEND", dtEnd.Value, fmt.Errorf("%w: end before start", ErrMalformedBlock))
	}
	blk.end = end

	if rr := ve.GetProperty(ical.ComponentPropertyRrule); rr != nil {
		days, until, hasUntil, err := parseRule(rr.Value, opts.Location, quirk)
		if err != nil {
			return fail("RRULE", rr.Value, err)
		}
		blk.days, blk.until, blk.hasUntil = days, until, hasUntil
		if days.IsEmpty() {
			appLog.Debug("ics rule without BYDAY; treating event as single meeting", "summary", blk.summary, "rrule", rr.Value)
		}
	}

	return blk, nil
}

// resolveTimestamp turns a DTSTART/DTEND property into an instant in loc.
//
// Zone precedence: explicit TZID, then a trailing "Z" (UTC, or loc when the
// exporter quirk is on), then loc. Date-only starts resolve to midnight and
// date-only ends to the last instant of that date.
func resolveTimestamp(prop *ical.IANAProperty, isEnd bool, loc *time.Location, quirk bool) (time.Time, error) {
	value := strings.TrimSpace(prop.Value)
	params := prop.ICalParameters

	tzids := params["TZID"]
	if len(tzids) > 1 {
		return time.Time{}, fmt.Errorf("%w: multiple TZID parameters", ErrAmbiguousTimeZone)
	}
	tzid := ""
	if len(tzids) == 1 {
		tzid = strings.Trim(strings.TrimSpace(tzids[0]), `"`)
	}

	dateOnly := false
	for _, v := range params["VALUE"] {
		if strings.EqualFold(strings.TrimSpace(v), "DATE") {
			dateOnly = true
		}
	}
	if len(value) == len(layoutDate) && !strings.Contains(value, "T") {
		dateOnly = true
	}

	zone := loc
	switch {
	case strings.HasSuffix(value, "Z"):
		if tzid != "" {
			return time.Time{}, fmt.Errorf("%w: TZID %q with UTC marker", ErrAmbiguousTimeZone, tzid)
		}
		value = strings.TrimSuffix(value, "Z")
		if !quirk {
			zone = time.UTC
		}
	case tzid != "":
		l, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedTimeZone, tzid)
		}
		zone = l
	}

	if dateOnly {
		t, err := time.ParseInLocation(layoutDate, value, zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad date %q", ErrMalformedBlock, value)
		}
		d := model.DateOf(t)
		if isEnd {
			return d.EndOf(zone).In(loc), nil
		}
		return d.In(zone).In(loc), nil
	}

	t, err := time.ParseInLocation(layoutDateTime, value, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date-time %q", ErrMalformedBlock, value)
	}
	return t.In(loc), nil
}

// parseRule extracts the BYDAY set and the UNTIL date (in loc) of a rule.
func parseRule(value string, loc *time.Location, quirk bool) (model.WeekdaySet, model.Date, bool, error) {
	opt, err := rrule.StrToROptionInLocation(value, loc)
	if err != nil {
		return 0, model.Date{}, false, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}

	var days model.WeekdaySet
	for _, wd := range opt.Byweekday {
		// rrule numbers weekdays from Monday = 0.
		days = days.With(time.Weekday((wd.Day() + 1) % 7))
	}

	if opt.Until.IsZero() {
		return days, model.Date{}, false, nil
	}
	until := opt.Until
	if quirk && untilIsUTC(value) {
		until = time.Date(until.Year(), until.Month(), until.Day(),
			until.Hour(), until.Minute(), until.Second(), until.Nanosecond(), loc)
	}
	return days, model.DateOf(until.In(loc)), true, nil
}

func untilIsUTC(rule string) bool {
	for _, part := range strings.Split(rule, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(strings.ToUpper(part), "UNTIL=") {
			return strings.HasSuffix(part, "Z")
		}
	}
	return false
}

// buildSchedule classifies blocks into courses and derives the date bounds.
// Weekly courses without UNTIL end on the schedule's overall last date.
func buildSchedule(blocks []eventBlock, loc *time.Location) (*model.Schedule, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptySchedule
	}

	s := &model.Schedule{Location: loc, Courses: make([]model.Course, 0, len(blocks))}
	var (
		open     []*model.Weekly
		haveLast bool
	)

	extend := func(first, last model.Date, lastKnown bool) {
		if s.FirstDate.IsZero() || first.Before(s.FirstDate) {
			s.FirstDate = first
		}
		if lastKnown && (!haveLast || last.After(s.LastDate)) {
			s.LastDate = last
			haveLast = true
		}
	}

	for _, blk := range blocks {
		if blk.days.IsEmpty() {
			c := &model.Singleton{Title: blk.summary, Interval: model.Interval{Start: blk.start, End: blk.end}}
			extend(c.FirstDate(), c.LastDate(), true)
			s.Courses = append(s.Courses, c)
			continue
		}

		c := &model.Weekly{
			Title:     blk.summary,
			Days:      blk.days,
			StartTime: model.ClockOf(blk.start),
			EndTime:   model.ClockOf(blk.end),
			First:     model.DateOf(blk.start),
			Last:      blk.until,
			Location:  loc,
		}
		extend(c.First, c.Last, blk.hasUntil)
		if !blk.hasUntil {
			open = append(open, c)
		}
		s.Courses = append(s.Courses, c)
	}

	if !haveLast {
		return nil, ErrUnboundedSchedule
	}
	for _, c := range open {
		c.Last = s.LastDate
	}
	if s.FirstDate.After(s.LastDate) {
		return nil, errors.Join(ErrMalformedBlock, fmt.Errorf("schedule starts %s after it ends %s", s.FirstDate, s.LastDate))
	}
	return s, nil
}

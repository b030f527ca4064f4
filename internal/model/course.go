package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// WeekdaySet is a bit set of time.Weekday values.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Days lists the members Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// String renders the set with two-letter codes, e.g. "MO,WE,FR".
func (s WeekdaySet) String() string {
	codes := make([]string, 0, 7)
	for _, d := range s.Days() {
		codes = append(codes, weekdayCodes[d])
	}
	return strings.Join(codes, ",")
}

func (s WeekdaySet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Course is one entry of a schedule. The only implementations are *Singleton
// and *Weekly.
type Course interface {
	Name() string
	// MeetingOnDate returns the meeting held on date, if any.
	MeetingOnDate(date Date) (Interval, bool)
	// FirstDate and LastDate bound the dates on which the course can meet.
	FirstDate() Date
	LastDate() Date
	// Occurrences lists every meeting in chronological order.
	Occurrences() ([]Interval, error)

	course()
}

// Singleton is a course that meets exactly once.
type Singleton struct {
	Title    string
	Interval Interval
}

func (s *Singleton) course() {}

func (s *Singleton) Name() string { return s.Title }

// MeetingOnDate matches any date within the inclusive date span of the meeting.
func (s *Singleton) MeetingOnDate(date Date) (Interval, bool) {
	if date.Before(s.FirstDate()) || date.After(s.LastDate()) {
		return Interval{}, false
	}
	return s.Interval, true
}

func (s *Singleton) FirstDate() Date { return DateOf(s.Interval.Start) }
func (s *Singleton) LastDate() Date  { return DateOf(s.Interval.End) }

func (s *Singleton) Occurrences() ([]Interval, error) {
	return []Interval{s.Interval}, nil
}

func (s *Singleton) String() string {
	return fmt.Sprintf("Singleton{name=%q, interval=%s}", s.Title, s.Interval)
}

// Weekly is a course that meets on Days between First and Last inclusive,
// from StartTime to EndTime wall-clock in Location.
type Weekly struct {
	Title     string
	Days      WeekdaySet
	StartTime Clock
	EndTime   Clock
	First     Date
	Last      Date
	Location  *time.Location
}

func (w *Weekly) course() {}

func (w *Weekly) Name() string { return w.Title }

func (w *Weekly) MeetingOnDate(date Date) (Interval, bool) {
	if date.Before(w.First) || date.After(w.Last) || !w.Days.Has(date.Weekday()) {
		return Interval{}, false
	}
	return Interval{
		Start: date.At(w.StartTime, w.loc()),
		End:   date.At(w.EndTime, w.loc()),
	}, true
}

func (w *Weekly) FirstDate() Date { return w.First }
func (w *Weekly) LastDate() Date  { return w.Last }

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Occurrences expands the weekly rule from First through Last.
func (w *Weekly) Occurrences() ([]Interval, error) {
	if w.Days.IsEmpty() || w.Last.Before(w.First) {
		return nil, nil
	}
	byDay := make([]rrule.Weekday, 0, 7)
	for _, d := range w.Days.Days() {
		byDay = append(byDay, rruleWeekdays[d])
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   w.First.At(w.StartTime, w.loc()),
		Until:     w.Last.EndOf(w.loc()),
		Byweekday: byDay,
	})
	if err != nil {
		return nil, fmt.Errorf("weekly rule for %q: %w", w.Title, err)
	}

	starts := rule.All()
	out := make([]Interval, 0, len(starts))
	for _, st := range starts {
		d := DateOf(st.In(w.loc()))
		out = append(out, Interval{
			Start: d.At(w.StartTime, w.loc()),
			End:   d.At(w.EndTime, w.loc()),
		})
	}
	return out, nil
}

func (w *Weekly) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

func (w *Weekly) String() string {
	return fmt.Sprintf("Weekly{name=%q, days=%s, start=%s, end=%s, first=%s, last=%s}",
		w.Title, w.Days, w.StartTime, w.EndTime, w.First, w.Last)
}

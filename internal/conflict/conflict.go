// Package conflict finds class meetings that fall inside holiday intervals.
package conflict

import (
	"time"

	"chagimcal/internal/model"
)

// MeetingsOnDate returns every course meeting held on date, in course order.
func MeetingsOnDate(s *model.Schedule, date model.Date) []model.CourseMeeting {
	var out []model.CourseMeeting
	for _, c := range s.Courses {
		if iv, ok := c.MeetingOnDate(date); ok {
			out = append(out, model.CourseMeeting{CourseName: c.Name(), Meeting: iv})
		}
	}
	return out
}

// MeetingsInInterval returns the meetings that overlap iv, ordered by date
// then course. Every date touched by iv in the schedule's zone is checked,
// including partially covered first and last days. A meeting of one course
// spanning several of those dates is reported once.
func MeetingsInInterval(s *model.Schedule, iv model.Interval) []model.CourseMeeting {
	iv = iv.In(location(s))

	var out []model.CourseMeeting
	seen := make(map[meetingKey]bool)
	for _, d := range model.DatesBetween(model.DateOf(iv.Start), model.DateOf(iv.End)) {
		for i, c := range s.Courses {
			m, ok := c.MeetingOnDate(d)
			if !ok || !iv.Overlaps(m) {
				continue
			}
			k := meetingKey{course: i, start: m.Start.UnixNano(), end: m.End.UnixNano()}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, model.CourseMeeting{CourseName: c.Name(), Meeting: m})
		}
	}
	return out
}

// meetingKey identifies a meeting by course position, so courses sharing a
// name stay distinct.
type meetingKey struct {
	course     int
	start, end int64
}

// Find returns one Conflict per holiday that has overlapping meetings,
// preserving holiday order.
func Find(s *model.Schedule, holidays []model.HolidayInterval) []model.Conflict {
	var out []model.Conflict
	for _, h := range holidays {
		meetings := MeetingsInInterval(s, h.Interval)
		if len(meetings) == 0 {
			continue
		}
		out = append(out, model.Conflict{Holiday: h, Meetings: meetings})
	}
	return out
}

func location(s *model.Schedule) *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

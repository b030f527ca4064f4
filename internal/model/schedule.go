package model

import "time"

// Schedule is the parsed set of courses. FirstDate and LastDate are derived
// once while parsing and never recomputed.
type Schedule struct {
	Courses   []Course
	FirstDate Date
	LastDate  Date
	// Location is the canonical zone every stored instant is expressed in.
	Location *time.Location
}

// CourseMeeting is one concrete occurrence of a course.
type CourseMeeting struct {
	CourseName string   `json:"course"`
	Meeting    Interval `json:"meeting"`
}

// HolidayInterval is one merged holiday period from the feed.
type HolidayInterval struct {
	EventName string   `json:"event"`
	Interval  Interval `json:"interval"`
}

// Conflict pairs a holiday with the meetings that overlap it. Only holidays
// with at least one meeting produce a Conflict.
type Conflict struct {
	Holiday  HolidayInterval `json:"holiday"`
	Meetings []CourseMeeting `json:"meetings"`
}

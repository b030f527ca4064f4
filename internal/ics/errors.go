package ics

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedBlock covers an event missing its title, start or end, or
	// carrying a timestamp or rule that cannot be parsed.
	ErrMalformedBlock = errors.New("malformed calendar block")
	// ErrAmbiguousTimeZone is returned when a property carries both a TZID
	// parameter and a UTC marker.
	ErrAmbiguousTimeZone = errors.New("ambiguous time zone")
	// ErrUnrecognizedTimeZone is returned for a TZID that cannot be loaded.
	ErrUnrecognizedTimeZone = errors.New("unrecognized time zone")
	// ErrEmptySchedule is returned when no course survives parsing.
	ErrEmptySchedule = errors.New("no courses found in calendar")
	// ErrUnboundedSchedule is returned when no course has a known last date.
	ErrUnboundedSchedule = errors.New("no course has a known last date")
)

// BlockError locates a failure inside one event block.
type BlockError struct {
	// Index is the zero-based position of the event in the calendar.
	Index    int
	Summary  string
	Property string
	Value    string
	Err      error
}

func (e *BlockError) Error() string {
	msg := fmt.Sprintf("event #%d", e.Index+1)
	if e.Summary != "" {
		msg += fmt.Sprintf(" (%q)", e.Summary)
	}
	if e.Property != "" {
		msg += " " + e.Property
		if e.Value != "" {
			msg += fmt.Sprintf("=%q", e.Value)
		}
	}
	return msg + ": " + e.Err.Error()
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

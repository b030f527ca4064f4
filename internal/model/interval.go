package model

import (
	"fmt"
	"time"
)

// Interval is a span between two instants. Start must not be after End.
//
// Containment is strictly exclusive at both ends, so two intervals that only
// share a boundary instant (back-to-back meetings) do not overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an Interval, rejecting end-before-start.
func NewInterval(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("interval end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Contains reports whether Start < t < End.
func (iv Interval) Contains(t time.Time) bool {
	return iv.Start.Before(t) && iv.End.After(t)
}

// Overlaps is symmetric: either interval contains an endpoint of the other.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Contains(o.Start) || iv.Contains(o.End) ||
		o.Contains(iv.Start) || o.Contains(iv.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// In returns the same instants expressed in loc.
func (iv Interval) In(loc *time.Location) Interval {
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc)}
}

// Equal compares instants, ignoring location.
func (iv Interval) Equal(o Interval) bool {
	return iv.Start.Equal(o.Start) && iv.End.Equal(o.End)
}

func (iv Interval) String() string {
	return "[" + iv.Start.Format(time.RFC3339) + ", " + iv.End.Format(time.RFC3339) + "]"
}

package hebcal

import (
	"errors"
	"fmt"
)

// ErrMalformedFeed is returned when the items array is missing or an
// object, pair or value does not have the expected flat shape.
var ErrMalformedFeed = errors.New("malformed holiday feed")

const maxFragment = 120

// RecordError locates a failure at one feed item.
type RecordError struct {
	// Index is the zero-based position of the item in the feed.
	Index    int
	Fragment string
	Err      error
}

func (e *RecordError) Error() string {
	frag := e.Fragment
	if len(frag) > maxFragment {
		frag = frag[:maxFragment] + "..."
	}
	return fmt.Sprintf("feed item #%d %q: %v", e.Index+1, frag, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

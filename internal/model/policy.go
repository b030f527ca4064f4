package model

import (
	"fmt"
	"strings"
)

// ErrorPolicy decides what parsers do with a malformed block or record.
type ErrorPolicy int

const (
	// AbortOnError fails the whole parse on the first malformed input.
	AbortOnError ErrorPolicy = iota
	// SkipInvalid drops the offending block or record and keeps going.
	SkipInvalid
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return AbortOnError, nil
	case "skip":
		return SkipInvalid, nil
	default:
		return AbortOnError, fmt.Errorf("unknown error policy %q (want abort or skip)", s)
	}
}

func (p ErrorPolicy) String() string {
	if p == SkipInvalid {
		return "skip"
	}
	return "abort"
}

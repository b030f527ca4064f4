package hebcal

import (
	"fmt"
	"regexp"
	"strings"

	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

// Record is one flat feed item. Every value is kept as a string.
type Record map[string]string

// Well-known record keys and marker values.
const (
	KeyTitle     = "title"
	KeyTitleOrig = "title_orig"
	KeyDate      = "date"
	KeyYomTov    = "yomtov"

	CandleLighting = "Candle lighting"
	Havdalah       = "Havdalah"
)

var (
	itemsPattern  = regexp.MustCompile(`"items"\s*:\s*\[([^\[\]]+)\]`)
	objectBreak   = regexp.MustCompile(`\}\s*,\s*\{`)
	objectPattern = regexp.MustCompile(`^\s*\{([^{}]*)\}\s*$`)
	pairPattern   = regexp.MustCompile(`^\s*"([^"]*)"\s*:\s*"?([^"]*)"?\s*$`)
)

// ParseRecords extracts the flat items array from a feed response body.
//
// This is deliberately not a general JSON decoder: items must be flat
// objects whose values hold no braces, brackets, quotes, or commas next to
// a quote. Items that break that shape are rejected rather than guessed at.
// A missing items array is always fatal; a bad item obeys policy.
func ParseRecords(body string, policy model.ErrorPolicy) ([]Record, []error, error) {
	m := itemsPattern.FindStringSubmatch(body)
	if m == nil {
		return nil, nil, fmt.Errorf("%w: no flat items array in response", ErrMalformedFeed)
	}

	objects := splitObjects(m[1])
	records := make([]Record, 0, len(objects))
	var skipped []error
	for i, obj := range objects {
		rec, err := parseObject(obj)
		if err != nil {
			rerr := &RecordError{Index: i, Fragment: strings.TrimSpace(obj), Err: err}
			if policy == model.AbortOnError {
				return nil, nil, rerr
			}
			appLog.Error("feed item skipped", rerr)
			skipped = append(skipped, rerr)
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// splitObjects cuts at every comma that sits between a closing and an
// opening brace, keeping the braces with their objects.
func splitObjects(s string) []string {
	var out []string
	last := 0
	for _, loc := range objectBreak.FindAllStringIndex(s, -1) {
		out = append(out, s[last:loc[0]+1])
		last = loc[1] - 1
	}
	return append(out, s[last:])
}

func parseObject(obj string) (Record, error) {
	m := objectPattern.FindStringSubmatch(obj)
	if m == nil {
		return nil, fmt.Errorf("%w: not a flat object", ErrMalformedFeed)
	}

	pairs := splitPairs(m[1])
	rec := make(Record, len(pairs))
	for _, p := range pairs {
		pm := pairPattern.FindStringSubmatch(p)
		if pm == nil {
			return nil, fmt.Errorf("%w: bad key/value pair %q", ErrMalformedFeed, strings.TrimSpace(p))
		}
		rec[pm[1]] = strings.TrimSpace(pm[2])
	}
	return rec, nil
}

// splitPairs cuts at commas that have a quote as their nearest non-space
// neighbour on at least one side. A comma inside a quoted value therefore
// survives unless it touches a quote.
func splitPairs(s string) []string {
	var out []string
	last := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			continue
		}
		if endsWithQuote(s[:i]) || startsWithQuote(s[i+1:]) {
			out = append(out, s[last:i])
			last = i + 1
		}
	}
	return append(out, s[last:])
}

func endsWithQuote(s string) bool {
	return strings.HasSuffix(strings.TrimRight(s, " \t\r\n"), `"`)
}

func startsWithQuote(s string) bool {
	return strings.HasPrefix(strings.TrimLeft(s, " \t\r\n"), `"`)
}

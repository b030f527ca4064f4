package hebcal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"chagimcal/internal/fetch"
	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

const DefaultBaseURL = "https://www.hebcal.com/hebcal"

// Client requests holiday feeds and turns them into intervals.
type Client struct {
	Fetcher *fetch.Fetcher
	// BaseURL is the feed endpoint; DefaultBaseURL when empty.
	BaseURL string
	// Zip selects the location used for candle-lighting times.
	Zip string
	// Location is the canonical zone of the returned intervals.
	Location *time.Location
	Policy   model.ErrorPolicy
}

// Result holds the intervals of one feed request.
type Result struct {
	Holidays []model.HolidayInterval
	Skipped  []error
	// FromCache is true when the feed body came from the disk cache.
	FromCache bool
}

// URL builds the feed request for major holidays with candle-lighting
// times between start and end inclusive.
func (c *Client) URL(start, end model.Date) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("holiday feed base url: %w", err)
	}
	q := u.Query()
	q.Set("cfg", "json")
	q.Set("v", "1")
	q.Set("maj", "on")
	q.Set("leyning", "off")
	q.Set("c", "on")
	q.Set("geo", "zip")
	q.Set("zip", c.Zip)
	q.Set("start", start.String())
	q.Set("end", end.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Holidays fetches the feed for [start, end] and builds holiday intervals.
func (c *Client) Holidays(ctx context.Context, start, end model.Date) (Result, error) {
	if c.Fetcher == nil {
		return Result{}, errors.New("holiday client has no fetcher")
	}
	if end.Before(start) {
		return Result{}, fmt.Errorf("holiday range end %s is before start %s", end, start)
	}
	if c.Zip == "" {
		return Result{}, errors.New("holiday feed zip is empty")
	}

	u, err := c.URL(start, end)
	if err != nil {
		return Result{}, err
	}
	res, err := c.Fetcher.FetchOne(ctx, fetch.Source{ID: "holidays", URL: u, Fresh: true})
	if err != nil {
		return Result{}, fmt.Errorf("fetch holiday feed: %w", err)
	}

	return c.Parse(res.Body, res.FromCache)
}

// Parse runs an already-retrieved feed body through the record parser and
// the interval builder.
func (c *Client) Parse(body []byte, fromCache bool) (Result, error) {
	records, skippedRecords, err := ParseRecords(string(body), c.Policy)
	if err != nil {
		return Result{}, err
	}
	holidays, skippedGroups, err := BuildIntervals(records, c.Location, c.Policy)
	if err != nil {
		return Result{}, err
	}

	appLog.Info("holiday feed parsed",
		"records", len(records),
		"holidays", len(holidays),
		"skipped", len(skippedRecords)+len(skippedGroups),
		"from_cache", fromCache,
	)
	return Result{
		Holidays:  holidays,
		Skipped:   append(skippedRecords, skippedGroups...),
		FromCache: fromCache,
	}, nil
}

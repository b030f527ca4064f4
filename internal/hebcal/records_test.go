package hebcal

import (
	"errors"
	"testing"

	"chagimcal/internal/model"
)

const sampleFeed = `{"title":"Hebcal 19104 September 2023","date":"2023-09-10T00:00:00.000Z",
"location":{"title":"Philadelphia, PA 19104","city":"Philadelphia","tzid":"America/New_York"},
"items":[
{"title":"Candle lighting: 6:44pm","date":"2023-09-15T18:44:00-04:00","category":"candles","title_orig":"Candle lighting","memo":"Erev Rosh Hashana"},
{"title":"Rosh Hashana 5784","date":"2023-09-16","category":"holiday","subcat":"major","yomtov":true,"memo":"The Jewish New Year, first of two days"},
{"title":"Rosh Hashana II","date":"2023-09-17","category":"holiday","subcat":"major","yomtov":true},
{"title":"Havdalah: 7:40pm","date":"2023-09-17T19:40:00-04:00","category":"havdalah","title_orig":"Havdalah"}
]}`

func TestParseRecords(t *testing.T) {
	t.Parallel()

	recs, skipped, err := ParseRecords(sampleFeed, model.AbortOnError)
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped %v", skipped)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	if recs[0][KeyTitleOrig] != CandleLighting || recs[0][KeyDate] != "2023-09-15T18:44:00-04:00" {
		t.Fatalf("unexpected first record %v", recs[0])
	}
	if recs[1][KeyYomTov] != "true" || recs[1][KeyTitle] != "Rosh Hashana 5784" {
		t.Fatalf("unexpected yom tov record %v", recs[1])
	}
	if recs[1]["memo"] != "The Jewish New Year, first of two days" {
		t.Fatalf("comma inside value was split: %q", recs[1]["memo"])
	}
	if recs[3][KeyTitleOrig] != Havdalah {
		t.Fatalf("unexpected last record %v", recs[3])
	}
}

func TestParseRecords_MissingItems(t *testing.T) {
	t.Parallel()

	for _, policy := range []model.ErrorPolicy{model.AbortOnError, model.SkipInvalid} {
		_, _, err := ParseRecords(`{"title":"nothing here"}`, policy)
		if !errors.Is(err, ErrMalformedFeed) {
			t.Fatalf("policy %s: expected malformed feed, got %v", policy, err)
		}
	}
}

func TestParseRecords_BadItem(t *testing.T) {
	t.Parallel()

	body := `{"items":[{"title":"Candle lighting: 4:20pm","title_orig":"Candle lighting"},{"broken"},{"title":"Havdalah: 5:30pm"}]}`

	_, _, err := ParseRecords(body, model.AbortOnError)
	var rerr *RecordError
	if !errors.As(err, &rerr) || rerr.Index != 1 || !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("abort: unexpected error %v", err)
	}

	recs, skipped, err := ParseRecords(body, model.SkipInvalid)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if len(recs) != 2 || len(skipped) != 1 {
		t.Fatalf("skip: got %d records and %d skipped", len(recs), len(skipped))
	}
}

func TestParseRecords_NestedObjectRejected(t *testing.T) {
	t.Parallel()

	body := `{"items":[{"title":"Shavuot I","leyning":{"torah":"Exodus 19:1"}}]}`
	_, _, err := ParseRecords(body, model.AbortOnError)
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("expected malformed feed, got %v", err)
	}
}

func TestSplitPairs(t *testing.T) {
	t.Parallel()

	got := splitPairs(`"a":"x, y","b":1, "c":true`)
	want := []string{`"a":"x, y"`, `"b":1`, ` "c":true`}
	if len(got) != len(want) {
		t.Fatalf("expected %d pairs, got %q", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: got %q want %q", i, got[i], want[i])
		}
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"chagimcal/internal/model"
)

func meeting(course string, start time.Time, d time.Duration) model.CourseMeeting {
	return model.CourseMeeting{CourseName: course, Meeting: model.Interval{Start: start, End: start.Add(d)}}
}

func sampleConflicts() []model.Conflict {
	fri := time.Date(2024, 1, 5, 19, 0, 0, 0, time.UTC)
	return []model.Conflict{
		{
			Holiday:  model.HolidayInterval{EventName: "Shabbat"},
			Meetings: []model.CourseMeeting{meeting("HIST 0100", fri, time.Hour)},
		},
		{
			Holiday: model.HolidayInterval{EventName: "Pesach"},
			Meetings: []model.CourseMeeting{
				meeting("CIS 1200", time.Date(2024, 4, 23, 10, 0, 0, 0, time.UTC), 50*time.Minute),
				meeting("HIST 0100", time.Date(2024, 4, 23, 13, 30, 0, 0, time.UTC), 80*time.Minute),
			},
		},
	}
}

func TestWriteConflicts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteConflicts(&buf, sampleConflicts()); err != nil {
		t.Fatalf("WriteConflicts: %v", err)
	}
	want := "\n" +
		"The course HIST 0100 meeting from 19:00-20:00 on 01/05 conflicts with the holiday of Shabbat.\n" +
		"\n" +
		"The course CIS 1200 meeting from 10:00-10:50 on 04/23 conflicts with the holiday of Pesach.\n" +
		"The course HIST 0100 meeting from 13:30-14:50 on 04/23 conflicts with the holiday of Pesach.\n" +
		"\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteConflicts_None(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteConflicts(&buf, nil); err != nil {
		t.Fatalf("WriteConflicts: %v", err)
	}
	if got := buf.String(); got != "\n"+noConflicts+"\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestWriteEmails(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := WriteEmails(&buf, sampleConflicts(), "Dana Levi")
	if err != nil {
		t.Fatalf("WriteEmails: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 drafts, got %d", n)
	}
	out := buf.String()

	hist := strings.Index(out, "-------HIST 0100-------")
	cis := strings.Index(out, "-------CIS 1200-------")
	if hist < 0 || cis < 0 || hist > cis {
		t.Fatalf("drafts missing or out of order:\n%s", out)
	}
	histDraft, cisDraft := out[hist:cis], out[cis:]

	if !strings.Contains(histDraft, "miss some classes") {
		t.Fatalf("expected plural for two absences:\n%s", histDraft)
	}
	if !strings.Contains(cisDraft, "miss some class due") {
		t.Fatalf("expected singular for one absence:\n%s", cisDraft)
	}
	for _, line := range []string{
		"I will be missing class on 01/05 for the holiday of Shabbat.",
		"I will be missing class on 04/23 for the holiday of Pesach.",
	} {
		if !strings.Contains(histDraft, line) {
			t.Fatalf("missing line %q", line)
		}
	}
	if !strings.HasSuffix(out, "Best, \nDana Levi") {
		t.Fatalf("missing signature:\n%s", out)
	}
}

func TestWriteEmails_NoName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := WriteEmails(&buf, sampleConflicts()[:1], ""); err != nil {
		t.Fatalf("WriteEmails: %v", err)
	}
	if strings.Contains(buf.String(), "Best,") {
		t.Fatalf("unexpected signature block")
	}
}

func TestWriteSchedule(t *testing.T) {
	t.Parallel()

	s := &model.Schedule{
		Courses: []model.Course{&model.Weekly{
			Title:     "CIS 1200",
			Days:      model.NewWeekdaySet(time.Monday, time.Wednesday),
			StartTime: model.Clock{Hour: 10},
			EndTime:   model.Clock{Hour: 10, Minute: 50},
			First:     model.Date{Year: 2024, Month: time.January, Day: 1},
			Last:      model.Date{Year: 2024, Month: time.January, Day: 7},
			Location:  time.UTC,
		}},
		FirstDate: model.Date{Year: 2024, Month: time.January, Day: 1},
		LastDate:  model.Date{Year: 2024, Month: time.January, Day: 7},
		Location:  time.UTC,
	}

	var buf bytes.Buffer
	if err := WriteSchedule(&buf, s); err != nil {
		t.Fatalf("WriteSchedule: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Schedule 2024-01-01 to 2024-01-07 (1 courses, times in UTC)",
		"  Mon 01/01 10:00-10:50",
		"  Wed 01/03 10:00-10:50",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

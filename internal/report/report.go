// Package report renders conflicts for people: a console summary and one
// email draft per course.
package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"chagimcal/internal/model"
)

const noConflicts = "There were no conflicts with your schedule"

// TimeSlot formats a meeting as "HH:MM-HH:MM".
func TimeSlot(iv model.Interval) string {
	return iv.Start.Format("15:04") + "-" + iv.End.Format("15:04")
}

// DateSlot formats a meeting's start date as "MM/DD".
func DateSlot(iv model.Interval) string {
	return iv.Start.Format("01/02")
}

// WriteConflicts prints one line per conflicting meeting, with a blank line
// before each holiday.
func WriteConflicts(w io.Writer, conflicts []model.Conflict) error {
	bw := bufio.NewWriter(w)
	for _, c := range conflicts {
		fmt.Fprintln(bw)
		for _, m := range c.Meetings {
			fmt.Fprintf(bw, "The course %s meeting from %s on %s conflicts with the holiday of %s.\n",
				m.CourseName, TimeSlot(m.Meeting), DateSlot(m.Meeting), c.Holiday.EventName)
		}
	}
	fmt.Fprintln(bw)
	if len(conflicts) == 0 {
		fmt.Fprintln(bw, noConflicts)
	}
	return bw.Flush()
}

// WriteSchedule lists each course and its meetings.
func WriteSchedule(w io.Writer, s *model.Schedule) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Schedule %s to %s (%d courses, times in %s)\n", s.FirstDate, s.LastDate, len(s.Courses), Zone(s))
	for _, c := range s.Courses {
		fmt.Fprintf(bw, "\n%v\n", c)
		meetings, err := c.Occurrences()
		if err != nil {
			return err
		}
		for _, iv := range meetings {
			fmt.Fprintf(bw, "  %s %s %s\n", iv.Start.Format("Mon"), DateSlot(iv), TimeSlot(iv))
		}
	}
	return bw.Flush()
}

type courseConflicts struct {
	course string
	lines  []string
}

// groupByCourse collects one absence line per meeting, courses in order of
// their first conflict.
func groupByCourse(conflicts []model.Conflict) []courseConflicts {
	var out []courseConflicts
	index := make(map[string]int)
	for _, c := range conflicts {
		for _, m := range c.Meetings {
			line := fmt.Sprintf("I will be missing class on %s for the holiday of %s.",
				DateSlot(m.Meeting), c.Holiday.EventName)
			i, ok := index[m.CourseName]
			if !ok {
				i = len(out)
				index[m.CourseName] = i
				out = append(out, courseConflicts{course: m.CourseName})
			}
			out[i].lines = append(out[i].lines, line)
		}
	}
	return out
}

// WriteEmails drafts one email per course with conflicts. name signs the
// emails when non-empty. It returns the number of drafts written.
func WriteEmails(w io.Writer, conflicts []model.Conflict, name string) (int, error) {
	groups := groupByCourse(conflicts)
	bw := bufio.NewWriter(w)
	for _, g := range groups {
		classes := "class"
		if len(g.lines) > 1 {
			classes = "classes"
		}
		fmt.Fprintf(bw, "\n\n -------%s-------\n", g.course)
		fmt.Fprint(bw, " \nDear Professor, \n\n")
		fmt.Fprintf(bw, "I hope this email finds you well. I am enrolled to take %s with you this semester.\n\n", g.course)
		fmt.Fprintf(bw, "I wanted to reach out to you now to let you know that I am an observant Jew and will have to miss some %s due to conflicts with Jewish holidays.\n\n", classes)
		for _, l := range g.lines {
			fmt.Fprintln(bw, l)
		}
		fmt.Fprint(bw, "\nI'm looking forward to taking your class, and hope these absences will not be too much of an inconvenience.\n\n")
		fmt.Fprint(bw, "Thank you so much for your understanding!\n")
		if name != "" {
			fmt.Fprintf(bw, "\nBest, \n%s", name)
		}
	}
	return len(groups), bw.Flush()
}

// Zone names the zone meetings are shown in, for report headers.
func Zone(s *model.Schedule) string {
	if s.Location == nil {
		return time.UTC.String()
	}
	return s.Location.String()
}

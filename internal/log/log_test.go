package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(LevelInfo)
	})

	Debug("hidden debug line")
	Info("holiday feed parsed", "holidays", 3)
	Error("fetch failed", errors.New("boom"), "id", "schedule")

	out := buf.String()
	if strings.Contains(out, "hidden debug line") {
		t.Fatalf("debug line leaked at info level:\n%s", out)
	}
	for _, want := range []string{"holiday feed parsed", "holidays=", "fetch failed", "boom", "id="} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("visible debug line")
	if !strings.Contains(buf.String(), "visible debug line") {
		t.Fatalf("debug line missing at debug level")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, " Info ": LevelInfo, "": LevelInfo, "ERROR": LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPairsDropsMalformed(t *testing.T) {
	got := pairs([]any{"a", 1, 2, "b", "dangling"})
	if len(got) != 2 || got[0] != "a" || got[1] != 1 {
		t.Fatalf("unexpected pairs %v", got)
	}
}

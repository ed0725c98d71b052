package logx

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  INFO ", zerolog.InfoLevel},
		{"Warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in, zerolog.InfoLevel); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate long = %q (len %d)", got, len(got))
	}
}

func TestFormatOpsJSON(t *testing.T) {
	line := `{"level":"error","time":"2026-01-05T12:00:00Z","message":"send failed","job":"reminder:abc","err":"timeout"}`
	got := formatOpsJSON([]byte(line + "\n"))

	if !strings.HasPrefix(got, "[ERROR] send failed") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "job=reminder:abc") {
		t.Fatalf("missing job field: %q", got)
	}
	if !strings.Contains(got, "err=timeout") {
		t.Fatalf("missing err field: %q", got)
	}
	if strings.Contains(got, "2026-01-05") {
		t.Fatalf("time field should be dropped: %q", got)
	}
}

func TestFormatOpsJSONNotJSON(t *testing.T) {
	got := formatOpsJSON([]byte("  plain text line \n"))
	if got != "plain text line" {
		t.Fatalf("raw passthrough = %q", got)
	}
}

func TestLoggerZeroValueIsSafe(t *testing.T) {
	var l Logger
	// Must not panic.
	l.Info("noop")
	l.With(String("k", "v")).Error("noop")
	if !l.IsZero() {
		t.Fatalf("zero logger should report IsZero")
	}
}

package schedule

import (
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func TestBuildersProduceValidExpressions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func() (string, error)
		want  string
	}{
		{name: "weekly monday noon", build: func() (string, error) { return BuildWeekly(0, 12, 1) }, want: "0 12 * * 1"},
		{name: "monthly mid-month", build: func() (string, error) { return BuildMonthly(30, 14, 15) }, want: "30 14 15 * *"},
		{name: "yearly new years eve", build: func() (string, error) { return BuildYearly(0, 0, 31, 12) }, want: "0 0 31 12 *"},
		{name: "daily morning", build: func() (string, error) { return BuildDaily(5, 9) }, want: "5 9 * * *"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			expr, err := tt.build()
			if err != nil {
				t.Fatalf("builder error: %v", err)
			}
			if expr != tt.want {
				t.Fatalf("expr = %q, want %q", expr, tt.want)
			}
			if _, err := cronParser.Parse(expr); err != nil {
				t.Fatalf("cron parser rejected %q: %v", expr, err)
			}
		})
	}
}

func TestBuildersRejectOutOfRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func() (string, error)
		field string
	}{
		{"minute too big", func() (string, error) { return BuildDaily(60, 0) }, "minute"},
		{"negative minute", func() (string, error) { return BuildWeekly(-1, 12, 1) }, "minute"},
		{"hour too big", func() (string, error) { return BuildWeekly(0, 24, 1) }, "hour"},
		{"dow too big", func() (string, error) { return BuildWeekly(0, 12, 7) }, "day_of_week"},
		{"dom zero", func() (string, error) { return BuildMonthly(0, 12, 0) }, "day_of_month"},
		{"dom too big", func() (string, error) { return BuildMonthly(0, 12, 32) }, "day_of_month"},
		{"month zero", func() (string, error) { return BuildYearly(0, 0, 1, 0) }, "month"},
		{"month too big", func() (string, error) { return BuildYearly(0, 0, 1, 13) }, "month"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			expr, err := tt.build()
			if err == nil {
				t.Fatalf("expected error, got %q", expr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("Field = %q, want %q", verr.Field, tt.field)
			}
			if expr != "" {
				t.Fatalf("expression returned alongside error: %q", expr)
			}
		})
	}
}

func TestBuildMonthlyAcceptsShortMonthDays(t *testing.T) {
	t.Parallel()
	// 29-31 are legal; the engine skips months without that date.
	for _, day := range []int{29, 30, 31} {
		expr, err := BuildMonthly(0, 8, day)
		if err != nil {
			t.Fatalf("BuildMonthly day %d: %v", day, err)
		}
		if _, err := cronParser.Parse(expr); err != nil {
			t.Fatalf("cron parser rejected %q: %v", expr, err)
		}
	}
}

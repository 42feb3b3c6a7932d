package domain

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWindowStarts(t *testing.T) {
	// Wednesday 2025-06-18 15:04:05
	at := time.Date(2025, 6, 18, 15, 4, 5, 0, time.UTC)

	day := DayStart(at)
	if !day.Equal(time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day start: %v", day)
	}

	week := WeekStart(at)
	if week.Weekday() != time.Sunday {
		t.Fatalf("week should start on Sunday, got %v", week.Weekday())
	}
	if !week.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start: %v", week)
	}

	month := MonthStart(at)
	if !month.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month start: %v", month)
	}
}

func TestWeekStartOnSunday(t *testing.T) {
	sunday := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	if got := WeekStart(sunday); !got.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("a Sunday should be its own week start, got %v", got)
	}
}

type recordingReader struct {
	windows [][2]time.Time
}

func (r *recordingReader) SumWindow(_ context.Context, _, _, _ string, from, to time.Time) (decimal.Decimal, error) {
	r.windows = append(r.windows, [2]time.Time{from, to})
	return decimal.NewFromInt(int64(len(r.windows)) * 100), nil
}

func TestUsageTrackerQueriesAllThreeWindows(t *testing.T) {
	reader := &recordingReader{}
	tracker := NewUsageTracker(reader)

	at := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	usage, err := tracker.Usage(context.Background(), "user-1", "deposit", "UGX", at)
	if err != nil {
		t.Fatal(err)
	}

	if len(reader.windows) != 3 {
		t.Fatalf("expected 3 window queries, got %d", len(reader.windows))
	}
	if !reader.windows[0][0].Equal(DayStart(at)) {
		t.Fatalf("first query should cover the day window, got from=%v", reader.windows[0][0])
	}
	if !reader.windows[1][0].Equal(WeekStart(at)) {
		t.Fatalf("second query should cover the week window, got from=%v", reader.windows[1][0])
	}
	if !reader.windows[2][0].Equal(MonthStart(at)) {
		t.Fatalf("third query should cover the month window, got from=%v", reader.windows[2][0])
	}

	if usage.Daily.String() != "100" || usage.Weekly.String() != "200" || usage.Monthly.String() != "300" {
		t.Fatalf("unexpected usage %+v", usage)
	}
}

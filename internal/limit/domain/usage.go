package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Usage is a user's rolling transaction volume per window.
type Usage struct {
	Daily   decimal.Decimal `json:"daily"`
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
}

// DayStart returns midnight of t's day, local time.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the most recent Sunday midnight at or before t.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthStart returns the first of t's month, midnight local time.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// UsageReader sums abs(amount) over a user's transactions of one type and
// currency within [from, to]. Both completed and pending rows count:
// a pending transaction reserves window capacity until settlement either
// completes it or releases the reservation by marking it failed. An empty
// transactionType sums across all types (system-wide ceiling check).
type UsageReader interface {
	SumWindow(ctx context.Context, userID, transactionType, currency string, from, to time.Time) (decimal.Decimal, error)
}

// UsageTracker computes rolling usage windows. Results are computed fresh
// from the store on every call; callers must not cache them across requests.
type UsageTracker struct {
	reader UsageReader
}

func NewUsageTracker(reader UsageReader) *UsageTracker {
	return &UsageTracker{reader: reader}
}

func (t *UsageTracker) Usage(ctx context.Context, userID, transactionType, currency string, asOf time.Time) (Usage, error) {
	daily, err := t.reader.SumWindow(ctx, userID, transactionType, currency, DayStart(asOf), asOf)
	if err != nil {
		return Usage{}, err
	}
	weekly, err := t.reader.SumWindow(ctx, userID, transactionType, currency, WeekStart(asOf), asOf)
	if err != nil {
		return Usage{}, err
	}
	monthly, err := t.reader.SumWindow(ctx, userID, transactionType, currency, MonthStart(asOf), asOf)
	if err != nil {
		return Usage{}, err
	}

	return Usage{Daily: daily, Weekly: weekly, Monthly: monthly}, nil
}

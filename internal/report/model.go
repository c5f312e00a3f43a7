// Package report computes scoped financial figures over a date range.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is the range reported when the caller gives no start date.
const DefaultWindow = 30 * 24 * time.Hour

// DefaultTopLimit is the number of top products returned by default.
const DefaultTopLimit = 10

// ErrInvalidPeriod is returned when a period ends before it starts.
var ErrInvalidPeriod = errors.New("period end is before its start")

// Period is a half-open time range [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// NewPeriod fills in missing bounds: To defaults to now and From to
// DefaultWindow before To.
func NewPeriod(from, to *time.Time, now time.Time) (Period, error) {
	p := Period{To: now}
	if to != nil {
		p.To = *to
	}
	p.From = p.To.Add(-DefaultWindow)
	if from != nil {
		p.From = *from
	}
	if p.To.Before(p.From) {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// Summary aggregates sales and purchases over a period. Money is in minor units.
type Summary struct {
	Transactions int
	Revenue      int64
	Discounts    int64
	CostOfGoods  int64
	GrossProfit  int64
	Purchases    int64
}

// Day is one row of the daily sales report.
type Day struct {
	Date         time.Time
	Transactions int
	Revenue      int64
}

// TopProduct is one row of the best sellers report.
type TopProduct struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Revenue   int64
}

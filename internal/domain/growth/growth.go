package growth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("growth: invalid period")

type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

func ParsePeriod(v string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(v)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	case "":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, v)
}

// Length is the rolling window size for the period.
func (p Period) Length() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case PeriodWeek:
		return 7 * day
	case PeriodQuarter:
		return 90 * day
	case PeriodYear:
		return 365 * day
	default:
		return 30 * day
	}
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows returns the window ending at now and the prior window of equal length.
func Windows(p Period, now time.Time) (current, previous Window) {
	l := p.Length()
	current = Window{Start: now.Add(-l), End: now}
	previous = Window{Start: current.Start.Add(-l), End: current.Start}
	return current, previous
}

// Sale is one supplier line item of a delivered order.
type Sale struct {
	OrderID string
	At      time.Time
	Amount  decimal.Decimal
}

type Metrics struct {
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
	Average decimal.Decimal `json:"average"`
}

// Summarize aggregates the sales falling in w. Orders counts distinct order ids.
func Summarize(sales []Sale, w Window) Metrics {
	revenue := decimal.Zero
	seen := make(map[string]struct{})
	for _, s := range sales {
		if !w.Contains(s.At) {
			continue
		}
		revenue = revenue.Add(s.Amount)
		seen[s.OrderID] = struct{}{}
	}
	m := Metrics{Revenue: revenue, Orders: len(seen), Average: decimal.Zero}
	if m.Orders > 0 {
		m.Average = revenue.Div(decimal.NewFromInt(int64(m.Orders))).Round(2)
	}
	return m
}

// Percent formats the change from previous to current. Both zero yields "0%";
// a zero on either side yields "+100%"; otherwise one decimal with an explicit
// sign for non-negative values.
func Percent(current, previous decimal.Decimal) string {
	switch {
	case current.IsZero() && previous.IsZero():
		return "0%"
	case current.IsZero() || previous.IsZero():
		return "+100%"
	}
	pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	s := pct.StringFixed(1)
	if !pct.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

type Rates struct {
	Revenue string `json:"revenue"`
	Orders  string `json:"orders"`
	Average string `json:"average"`
}

func Compare(current, previous Metrics) Rates {
	return Rates{
		Revenue: Percent(current.Revenue, previous.Revenue),
		Orders:  Percent(decimal.NewFromInt(int64(current.Orders)), decimal.NewFromInt(int64(previous.Orders))),
		Average: Percent(current.Average, previous.Average),
	}
}

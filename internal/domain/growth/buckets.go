package growth

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bucket struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// Buckets splits the sales of the current window into the period's chart buckets.
//
//	week     Monday..Sunday by weekday
//	month    four 7-day buckets from window start, the tail folds into the last
//	quarter  the three calendar months ending at now's month
//	year     twelve month names, years are not distinguished
func Buckets(p Period, sales []Sale, current Window) []Bucket {
	var labels []string
	var key func(time.Time) (string, bool)

	loc := current.End.Location()
	switch p {
	case PeriodWeek:
		for _, d := range weekdays {
			labels = append(labels, d.String()[:3])
		}
		key = func(t time.Time) (string, bool) { return t.In(loc).Weekday().String()[:3], true }
	case PeriodQuarter:
		end := current.End.In(loc)
		first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -2, 0)
		months := make(map[string]bool, 3)
		for i := 0; i < 3; i++ {
			l := first.AddDate(0, i, 0).Month().String()[:3]
			labels = append(labels, l)
			months[l] = true
		}
		key = func(t time.Time) (string, bool) {
			l := t.In(loc).Month().String()[:3]
			return l, months[l]
		}
	case PeriodYear:
		for m := time.January; m <= time.December; m++ {
			labels = append(labels, m.String()[:3])
		}
		key = func(t time.Time) (string, bool) { return t.In(loc).Month().String()[:3], true }
	default:
		labels = []string{"Week 1", "Week 2", "Week 3", "Week 4"}
		key = func(t time.Time) (string, bool) {
			idx := int(t.Sub(current.Start) / (7 * 24 * time.Hour))
			if idx > 3 {
				idx = 3
			}
			return labels[idx], true
		}
	}

	buckets := make([]Bucket, len(labels))
	index := make(map[string]int, len(labels))
	orders := make([]map[string]struct{}, len(labels))
	for i, l := range labels {
		buckets[i] = Bucket{Label: l, Revenue: decimal.Zero}
		index[l] = i
		orders[i] = make(map[string]struct{})
	}

	for _, s := range sales {
		if !current.Contains(s.At) {
			continue
		}
		l, ok := key(s.At)
		if !ok {
			continue
		}
		i := index[l]
		buckets[i].Revenue = buckets[i].Revenue.Add(s.Amount)
		orders[i][s.OrderID] = struct{}{}
	}
	for i := range buckets {
		buckets[i].Orders = len(orders[i])
	}
	return buckets
}

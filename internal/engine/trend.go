package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Resolution selects the x-axis of a trend.
type Resolution string

const (
	ResMonth   Resolution = "commercial_month"
	ResDay     Resolution = "day"
	ResWeekday Resolution = "weekday"
)

// ParseResolution validates a resolution name.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResMonth, ResDay, ResWeekday:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// Point is one trend sample.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// weekday labels in chart order, Monday first.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Trend emits (label, value) pairs over a contiguous domain. Gaps are
// emitted as explicit zeros so line charts stay monotonic on the x-axis.
func (e *Engine) Trend(metric Metric, kind model.Kind, res Resolution) ([]Point, error) {
	t, err := e.table(kind)
	if err != nil {
		return nil, err
	}
	if !available(t, metric) {
		return nil, model.ErrUnavailable
	}
	if len(t.Rows) == 0 {
		return []Point{}, nil
	}

	switch res {
	case ResMonth:
		return e.trendMonth(t, metric)
	case ResDay:
		return e.trendDay(t, metric)
	case ResWeekday:
		return e.trendWeekday(t, metric)
	}
	return nil, fmt.Errorf("unknown resolution %q", res)
}

func (e *Engine) trendMonth(t *model.Table, metric Metric) ([]Point, error) {
	sums := make(map[int]decimal.Decimal)
	minK, maxK := t.Rows[0].Month.SortKey(), t.Rows[0].Month.SortKey()
	labels := make(map[int]string)
	for _, r := range t.Rows {
		k := r.Month.SortKey()
		sums[k] = sums[k].Add(metricOf(r, metric))
		labels[k] = r.Month.Label()
		if k < minK {
			minK = k
		}
		if k > maxK {
			maxK = k
		}
	}

	out := make([]Point, 0, maxK-minK+1)
	for k := minK; k <= maxK; k++ {
		label, ok := labels[k]
		if !ok {
			// gap month: rebuild the label from the sort key
			label = monthLabelFromSortKey(k)
		}
		out = append(out, Point{Label: label, Value: sums[k]})
	}
	return out, nil
}

func monthLabelFromSortKey(k int) string {
	year := k / 12
	month := k%12 + 1
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan/2006")
}

func (e *Engine) trendDay(t *model.Table, metric Metric) ([]Point, error) {
	day := func(ts time.Time) time.Time {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}

	sums := make(map[time.Time]decimal.Decimal)
	minD, maxD := day(t.Rows[0].Date), day(t.Rows[0].Date)
	for _, r := range t.Rows {
		d := day(r.Date)
		sums[d] = sums[d].Add(metricOf(r, metric))
		if d.Before(minD) {
			minD = d
		}
		if d.After(maxD) {
			maxD = d
		}
	}

	var out []Point
	for d := minD; !d.After(maxD); d = d.AddDate(0, 0, 1) {
		out = append(out, Point{Label: d.Format("2006-01-02"), Value: sums[d]})
	}
	return out, nil
}

func (e *Engine) trendWeekday(t *model.Table, metric Metric) ([]Point, error) {
	sums := make(map[time.Weekday]decimal.Decimal)
	for _, r := range t.Rows {
		wd := r.Date.Weekday()
		sums[wd] = sums[wd].Add(metricOf(r, metric))
	}

	out := make([]Point, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		out = append(out, Point{Label: wd.String(), Value: sums[wd]})
	}
	return out, nil
}

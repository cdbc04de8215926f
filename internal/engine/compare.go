package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Rel is a relative delta that may be "new" (zero denominator with a
// non-zero numerator) or unavailable (signed sums made the denominator
// negative).
type Rel struct {
	Value decimal.Decimal `json:"value"`
	New   bool            `json:"new,omitempty"`
	OK    bool            `json:"ok"`
}

// String renders a Rel for text output.
func (r Rel) String() string {
	if !r.OK {
		return "n/a"
	}
	if r.New {
		return "new"
	}
	return r.Value.StringFixed(4)
}

// relDelta computes (b-a)/a with the taxonomy above.
func relDelta(a, b decimal.Decimal) Rel {
	if a.IsZero() {
		if b.IsZero() {
			return Rel{Value: decimal.Zero, OK: true}
		}
		return Rel{New: true, OK: true}
	}
	if a.IsNegative() {
		return Rel{OK: false}
	}
	return Rel{Value: b.Sub(a).Div(a), OK: true}
}

// DimDelta is the per-dimension slice of a comparison.
type DimDelta struct {
	Dim  string          `json:"dim"`
	SumA decimal.Decimal `json:"sum_a"`
	SumB decimal.Decimal `json:"sum_b"`
	Rel  Rel             `json:"rel_delta"`
}

// Comparison is the result of comparing two periods.
type Comparison struct {
	SumA     decimal.Decimal `json:"sum_a"`
	SumB     decimal.Decimal `json:"sum_b"`
	AbsDelta decimal.Decimal `json:"abs_delta"`
	Rel      Rel             `json:"rel_delta"`
	PerDim   []DimDelta      `json:"per_dim,omitempty"`
}

// Compare sums the metric over two periods (sets of commercial months) and
// emits absolute and relative deltas, optionally attributed per dimension.
// rel_delta uses period A as the denominator.
func (e *Engine) Compare(periodA, periodB []calendar.Key, dim *model.Role, metric Metric, kind model.Kind) (*Comparison, error) {
	t, err := e.table(kind)
	if err != nil {
		return nil, err
	}
	if dim != nil && !dimAvailable(t, *dim) {
		return nil, model.ErrUnavailable
	}

	sumA, _, byDimA, err := accumulate(t, metric, periodA, dim)
	if err != nil {
		return nil, err
	}
	sumB, _, byDimB, err := accumulate(t, metric, periodB, dim)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		SumA:     sumA,
		SumB:     sumB,
		AbsDelta: sumB.Sub(sumA),
		Rel:      relDelta(sumA, sumB),
	}

	if dim != nil {
		seen := make(map[string]struct{}, len(byDimA)+len(byDimB))
		for k := range byDimA {
			seen[k] = struct{}{}
		}
		for k := range byDimB {
			seen[k] = struct{}{}
		}
		cmp.PerDim = make([]DimDelta, 0, len(seen))
		for k := range seen {
			a, b := byDimA[k], byDimB[k]
			cmp.PerDim = append(cmp.PerDim, DimDelta{
				Dim:  k,
				SumA: a,
				SumB: b,
				Rel:  relDelta(a, b),
			})
		}
		sort.Slice(cmp.PerDim, func(i, j int) bool {
			c := cmp.PerDim[i].SumB.Cmp(cmp.PerDim[j].SumB)
			if c != 0 {
				return c > 0
			}
			return cmp.PerDim[i].Dim < cmp.PerDim[j].Dim
		})
	}

	return cmp, nil
}

// RateEntry is one dimension's return rate. OK is false when the
// dimension had zero sales in the window.
type RateEntry struct {
	Dim  string          `json:"dim"`
	Rate decimal.Decimal `json:"rate"`
	OK   bool            `json:"ok"`
}

// ReturnRateResult carries the overall rate and, when a dimension was
// requested, the per-dimension attribution.
type ReturnRateResult struct {
	Rate         decimal.Decimal `json:"rate"`
	SalesTotal   decimal.Decimal `json:"sales_total"`
	ReturnsTotal decimal.Decimal `json:"returns_total"`
	PerDim       []RateEntry     `json:"per_dim,omitempty"`
}

// ReturnRate computes |returns| / sales over the given commercial-month
// window (empty window means the whole view). Zero sales yields
// model.ErrUnavailable, never a division by zero.
func (e *Engine) ReturnRate(window []calendar.Key, dim *model.Role) (*ReturnRateResult, error) {
	if dim != nil && (!dimAvailable(e.sales, *dim) || !dimAvailable(e.returns, *dim)) {
		return nil, model.ErrUnavailable
	}

	salesTotal, _, salesByDim, err := accumulate(e.sales, MetricValue, window, dim)
	if err != nil {
		return nil, err
	}
	returnsTotal, _, returnsByDim, err := accumulate(e.returns, MetricValue, window, dim)
	if err != nil {
		return nil, err
	}
	returnsTotal = returnsTotal.Abs()

	if salesTotal.IsZero() {
		return nil, model.ErrUnavailable
	}

	res := &ReturnRateResult{
		Rate:         returnsTotal.Div(salesTotal),
		SalesTotal:   salesTotal,
		ReturnsTotal: returnsTotal,
	}

	if dim != nil {
		res.PerDim = make([]RateEntry, 0, len(returnsByDim))
		for k, ret := range returnsByDim {
			sales, ok := salesByDim[k]
			if !ok || sales.IsZero() {
				res.PerDim = append(res.PerDim, RateEntry{Dim: k})
				continue
			}
			res.PerDim = append(res.PerDim, RateEntry{Dim: k, Rate: ret.Abs().Div(sales), OK: true})
		}
		sort.Slice(res.PerDim, func(i, j int) bool {
			c := res.PerDim[i].Rate.Cmp(res.PerDim[j].Rate)
			if c != 0 {
				return c > 0
			}
			return res.PerDim[i].Dim < res.PerDim[j].Dim
		})
	}

	return res, nil
}

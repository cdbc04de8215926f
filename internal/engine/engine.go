// Package engine answers the analytic questions: group-by sums, top-N
// rankings, period comparisons, return-rate attribution and trends. All
// operations run over the filtered view (global filter + hierarchy
// assertion) and are deterministic: identical input produces identical
// output, with ties broken by dimension value ascending.
package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/hierarchy"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/store"
)

// Metric selects what is summed.
type Metric string

const (
	MetricValue    Metric = "value"
	MetricQuantity Metric = "quantity"
	MetricTonnage  Metric = "tonnage"
	MetricCount    Metric = "count"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricValue, MetricQuantity, MetricTonnage, MetricCount:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// ParseDim maps a dimension name to its grouping role. "commercial_month"
// groups by the month label (the date role).
func ParseDim(s string) (model.Role, error) {
	if s == "commercial_month" || s == "month" {
		return model.RoleDate, nil
	}
	role, err := model.ParseRole(s)
	if err != nil {
		return "", err
	}
	switch role {
	case model.RoleValue, model.RoleQuantity, model.RoleTonnage:
		return "", fmt.Errorf("role %q is a metric, not a dimension", s)
	}
	return role, nil
}

// Engine computes aggregations over one captured pair of views. It holds
// no shared state: build one per request so in-flight work keeps the
// snapshot it started with.
type Engine struct {
	sales   *model.Table
	returns *model.Table
}

// New wraps already-filtered sales and returns views.
func New(sales, returns *model.Table) *Engine {
	return &Engine{sales: sales, returns: returns}
}

// ForSession captures the store's current views and narrows them to the
// caller's hierarchy assertion.
func ForSession(st *store.Store, a model.Assertion) (*Engine, error) {
	sales, err := st.View(model.KindSales)
	if err != nil {
		return nil, err
	}
	returns, err := st.View(model.KindReturns)
	if err != nil {
		return nil, err
	}
	sales, err = hierarchy.Apply(a, sales)
	if err != nil {
		return nil, err
	}
	returns, err = hierarchy.Apply(a, returns)
	if err != nil {
		return nil, err
	}
	return New(sales, returns), nil
}

func (e *Engine) table(kind model.Kind) (*model.Table, error) {
	switch kind {
	case model.KindSales:
		return e.sales, nil
	case model.KindReturns:
		return e.returns, nil
	}
	return nil, fmt.Errorf("unknown table kind %q", kind)
}

// available reports whether a metric can be computed on a table.
func available(t *model.Table, metric Metric) bool {
	switch metric {
	case MetricValue:
		return t.Binding.Bound(model.RoleValue)
	case MetricQuantity:
		return t.Binding.Bound(model.RoleQuantity)
	case MetricTonnage:
		return t.Binding.Bound(model.RoleTonnage)
	case MetricCount:
		return true
	}
	return false
}

// dimAvailable reports whether a grouping role carries data.
func dimAvailable(t *model.Table, dim model.Role) bool {
	if dim == model.RoleDate {
		return true
	}
	return t.Binding.Bound(dim)
}

func metricOf(r model.Row, metric Metric) decimal.Decimal {
	switch metric {
	case MetricValue:
		return r.Value
	case MetricQuantity:
		return decimal.NewFromInt(r.Quantity)
	case MetricTonnage:
		return decimal.NewFromFloat(r.Tonnage)
	case MetricCount:
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Entry is one (dimension value, sum) pair.
type Entry struct {
	Dim   string          `json:"dim"`
	Value decimal.Decimal `json:"value"`
}

// sortEntries orders descending by value, ties ascending by dim.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		c := entries[i].Value.Cmp(entries[j].Value)
		if c != 0 {
			return c > 0
		}
		return entries[i].Dim < entries[j].Dim
	})
}

// SumBy groups the view by dim and sums the metric. Returns
// model.ErrUnavailable when the metric's or dimension's role is unbound;
// callers must branch, not show zero.
func (e *Engine) SumBy(dim model.Role, metric Metric, kind model.Kind) ([]Entry, error) {
	t, err := e.table(kind)
	if err != nil {
		return nil, err
	}
	if !available(t, metric) || !dimAvailable(t, dim) {
		return nil, model.ErrUnavailable
	}

	sums := make(map[string]decimal.Decimal)
	for _, r := range t.Rows {
		k := r.Dim(dim)
		sums[k] = sums[k].Add(metricOf(r, metric))
	}

	entries := make([]Entry, 0, len(sums))
	for k, v := range sums {
		entries = append(entries, Entry{Dim: k, Value: v})
	}
	sortEntries(entries)
	return entries, nil
}

// Alternance selects how top-N values are emitted.
type Alternance string

const (
	AltAbsolute  Alternance = "absolute"
	AltShare     Alternance = "share"
	AltDeltaPrev Alternance = "delta_vs_prev"
)

// ParseAlternance validates an alternance name.
func ParseAlternance(s string) (Alternance, error) {
	switch Alternance(s) {
	case AltAbsolute, AltShare, AltDeltaPrev:
		return Alternance(s), nil
	}
	return "", fmt.Errorf("unknown alternance %q", s)
}

// Ranked is one top-N result. New marks a delta_vs_prev entry whose prior
// sum was zero; its Value is meaningless and renders as "new".
type Ranked struct {
	Dim   string          `json:"dim"`
	Value decimal.Decimal `json:"value"`
	New   bool            `json:"new,omitempty"`
}

// TopNOptions restricts the periods top-N ranks over. Prior is required
// for delta_vs_prev.
type TopNOptions struct {
	Period []calendar.Key
	Prior  []calendar.Key
}

// TopN ranks the n largest groups by the metric (descending, ties by dim
// ascending) and emits each value per the alternance. The result is never
// padded: fewer groups yield a shorter list.
func (e *Engine) TopN(dim model.Role, metric Metric, kind model.Kind, n int, alt Alternance, opts TopNOptions) ([]Ranked, error) {
	t, err := e.table(kind)
	if err != nil {
		return nil, err
	}
	if !available(t, metric) || !dimAvailable(t, dim) {
		return nil, model.ErrUnavailable
	}
	if n <= 0 {
		return []Ranked{}, nil
	}
	if alt == AltDeltaPrev && len(opts.Prior) == 0 {
		return nil, fmt.Errorf("delta_vs_prev requires a prior period")
	}

	_, _, byDim, err := accumulate(t, metric, opts.Period, &dim)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(byDim))
	for k, v := range byDim {
		entries = append(entries, Entry{Dim: k, Value: v})
	}
	sortEntries(entries)
	if len(entries) > n {
		entries = entries[:n]
	}

	switch alt {
	case AltAbsolute:
		out := make([]Ranked, len(entries))
		for i, en := range entries {
			out[i] = Ranked{Dim: en.Dim, Value: en.Value}
		}
		return out, nil

	case AltShare:
		total := decimal.Zero
		for _, v := range byDim {
			total = total.Add(v)
		}
		out := make([]Ranked, len(entries))
		for i, en := range entries {
			if total.IsZero() {
				out[i] = Ranked{Dim: en.Dim, Value: decimal.Zero}
				continue
			}
			out[i] = Ranked{Dim: en.Dim, Value: en.Value.Div(total)}
		}
		return out, nil

	case AltDeltaPrev:
		_, _, priorByDim, err := accumulate(t, metric, opts.Prior, &dim)
		if err != nil {
			return nil, err
		}
		out := make([]Ranked, len(entries))
		for i, en := range entries {
			prior := priorByDim[en.Dim]
			if prior.IsZero() {
				out[i] = Ranked{Dim: en.Dim, New: true}
				continue
			}
			out[i] = Ranked{Dim: en.Dim, Value: en.Value.Sub(prior).Div(prior)}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown alternance %q", alt)
}

// accumulate is the shared single-pass helper behind TopN, Compare and
// ReturnRate: sum the metric over rows inside the period, optionally
// grouped by dim (nil skips grouping). An empty period means the whole
// view.
func accumulate(t *model.Table, metric Metric, period []calendar.Key, dim *model.Role) (total decimal.Decimal, count int64, byDim map[string]decimal.Decimal, err error) {
	if !available(t, metric) {
		return decimal.Zero, 0, nil, model.ErrUnavailable
	}

	var inPeriod map[calendar.Key]struct{}
	if len(period) > 0 {
		inPeriod = make(map[calendar.Key]struct{}, len(period))
		for _, k := range period {
			inPeriod[k] = struct{}{}
		}
	}

	byDim = make(map[string]decimal.Decimal)
	for _, r := range t.Rows {
		if inPeriod != nil {
			if _, ok := inPeriod[r.Month]; !ok {
				continue
			}
		}
		v := metricOf(r, metric)
		total = total.Add(v)
		count++
		if dim != nil {
			k := r.Dim(*dim)
			byDim[k] = byDim[k].Add(v)
		}
	}
	return total, count, byDim, nil
}

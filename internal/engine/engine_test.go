package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

func binding(roles ...model.Role) model.Binding {
	cols := make(map[model.Role]string, len(roles))
	for _, r := range roles {
		cols[r] = string(r)
	}
	return model.Binding{Columns: cols}
}

func salesRow(year, month int, product string, value int64) model.Row {
	return model.Row{
		Date:    time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
		Month:   calendar.Key{Year: year, Month: month},
		Value:   decimal.NewFromInt(value),
		Product: product,
	}
}

func salesTable(rows ...model.Row) *model.Table {
	return &model.Table{
		Kind:    model.KindSales,
		Binding: binding(model.RoleDate, model.RoleValue, model.RoleProduct),
		Rows:    rows,
	}
}

func emptyReturns(b model.Binding) *model.Table {
	return &model.Table{Kind: model.KindReturns, Binding: b}
}

func month(y, m int) calendar.Key { return calendar.Key{Year: y, Month: m} }

func TestSumByGroupsAndSorts(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "Widget", 100),
		salesRow(2024, 1, "Gadget", 300),
		salesRow(2024, 2, "Widget", 50),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.SumBy(model.RoleProduct, MetricValue, model.KindSales)
	if err != nil {
		t.Fatalf("SumBy: %v", err)
	}
	want := []Entry{
		{Dim: "Gadget", Value: decimal.NewFromInt(300)},
		{Dim: "Widget", Value: decimal.NewFromInt(150)},
	}
	if len(got) != len(want) {
		t.Fatalf("SumBy = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Dim != want[i].Dim || !got[i].Value.Equal(want[i].Value) {
			t.Errorf("SumBy[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSumByUnavailable(t *testing.T) {
	tbl := salesTable(salesRow(2024, 1, "Widget", 100))
	e := New(tbl, emptyReturns(tbl.Binding))

	if _, err := e.SumBy(model.RoleProduct, MetricTonnage, model.KindSales); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("unbound metric: got %v, want ErrUnavailable", err)
	}
	if _, err := e.SumBy(model.RoleCustomer, MetricValue, model.KindSales); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("unbound dimension: got %v, want ErrUnavailable", err)
	}
}

// Equal sums must rank in ascending dimension order, on every run.
func TestTopNTieBreakIsDeterministic(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "B", 10),
		salesRow(2024, 1, "A", 10),
		salesRow(2024, 1, "C", 5),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	for run := 0; run < 20; run++ {
		got, err := e.TopN(model.RoleProduct, MetricValue, model.KindSales, 2, AltAbsolute, TopNOptions{})
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		if len(got) != 2 || got[0].Dim != "A" || got[1].Dim != "B" {
			t.Fatalf("run %d: order = %v, want [A B]", run, got)
		}
	}
}

func TestTopNNeverPads(t *testing.T) {
	tbl := salesTable(salesRow(2024, 1, "Widget", 100))
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.TopN(model.RoleProduct, MetricValue, model.KindSales, 10, AltAbsolute, TopNOptions{})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entries, want 1 (no padding)", len(got))
	}
}

func TestTopNShare(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "Widget", 75),
		salesRow(2024, 1, "Gadget", 25),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.TopN(model.RoleProduct, MetricValue, model.KindSales, 2, AltShare, TopNOptions{})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if got[0].Value.String() != "0.75" || got[1].Value.String() != "0.25" {
		t.Errorf("shares = %s / %s", got[0].Value, got[1].Value)
	}
}

func TestTopNDeltaVsPrevMarksNew(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "Widget", 100),
		salesRow(2024, 2, "Widget", 150),
		salesRow(2024, 2, "Gadget", 80),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.TopN(model.RoleProduct, MetricValue, model.KindSales, 5, AltDeltaPrev, TopNOptions{
		Period: []calendar.Key{month(2024, 2)},
		Prior:  []calendar.Key{month(2024, 1)},
	})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	byDim := make(map[string]Ranked)
	for _, r := range got {
		byDim[r.Dim] = r
	}
	if w := byDim["Widget"]; w.New || w.Value.String() != "0.5" {
		t.Errorf("Widget delta = %+v, want 0.5", w)
	}
	if g := byDim["Gadget"]; !g.New {
		t.Errorf("Gadget must be marked new, got %+v", g)
	}

	if _, err := e.TopN(model.RoleProduct, MetricValue, model.KindSales, 5, AltDeltaPrev, TopNOptions{}); err == nil {
		t.Errorf("delta_vs_prev without a prior period must fail")
	}
}

func TestCompare(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "Widget", 100),
		salesRow(2024, 2, "Widget", 150),
		salesRow(2024, 2, "Gadget", 80),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	dim := model.RoleProduct
	cmp, err := e.Compare([]calendar.Key{month(2024, 1)}, []calendar.Key{month(2024, 2)}, &dim, MetricValue, model.KindSales)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.SumA.String() != "100" || cmp.SumB.String() != "230" || cmp.AbsDelta.String() != "130" {
		t.Fatalf("sums = %s/%s/%s", cmp.SumA, cmp.SumB, cmp.AbsDelta)
	}
	if !cmp.Rel.OK || cmp.Rel.Value.String() != "1.3" {
		t.Errorf("rel = %+v", cmp.Rel)
	}

	// per-dim sorted by sum_b descending
	if len(cmp.PerDim) != 2 || cmp.PerDim[0].Dim != "Widget" {
		t.Fatalf("per-dim = %v", cmp.PerDim)
	}
	gadget := cmp.PerDim[1]
	if !gadget.Rel.New {
		t.Errorf("Gadget had no prior sales, rel must be new: %+v", gadget.Rel)
	}
}

func TestCompareZeroDenominator(t *testing.T) {
	tbl := salesTable(salesRow(2024, 2, "Widget", 150))
	e := New(tbl, emptyReturns(tbl.Binding))

	cmp, err := e.Compare([]calendar.Key{month(2024, 1)}, []calendar.Key{month(2024, 2)}, nil, MetricValue, model.KindSales)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !cmp.Rel.New {
		t.Errorf("zero->nonzero must be new, got %+v", cmp.Rel)
	}

	cmp, err = e.Compare([]calendar.Key{month(2023, 1)}, []calendar.Key{month(2023, 2)}, nil, MetricValue, model.KindSales)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !cmp.Rel.OK || cmp.Rel.New || !cmp.Rel.Value.IsZero() {
		t.Errorf("zero->zero must be a plain zero delta, got %+v", cmp.Rel)
	}
}

func TestReturnRate(t *testing.T) {
	sales := salesTable(
		salesRow(2024, 1, "Widget", 1000),
		salesRow(2024, 1, "Gadget", 500),
	)
	returns := &model.Table{
		Kind:    model.KindReturns,
		Binding: sales.Binding,
		Rows: []model.Row{
			{Month: month(2024, 1), Value: decimal.NewFromInt(-100), Product: "Widget"},
		},
	}
	e := New(sales, returns)

	dim := model.RoleProduct
	res, err := e.ReturnRate(nil, &dim)
	if err != nil {
		t.Fatalf("ReturnRate: %v", err)
	}
	want := decimal.NewFromInt(100).Div(decimal.NewFromInt(1500))
	if !res.Rate.Equal(want) {
		t.Errorf("rate = %s, want %s", res.Rate, want)
	}
	if res.ReturnsTotal.String() != "100" {
		t.Errorf("returns total = %s, want 100 (absolute)", res.ReturnsTotal)
	}
	if len(res.PerDim) != 1 || res.PerDim[0].Dim != "Widget" || res.PerDim[0].Rate.String() != "0.1" {
		t.Errorf("per-dim = %v", res.PerDim)
	}
}

func TestReturnRateZeroSalesUnavailable(t *testing.T) {
	sales := salesTable()
	e := New(sales, emptyReturns(sales.Binding))
	if _, err := e.ReturnRate(nil, nil); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("zero sales: got %v, want ErrUnavailable", err)
	}
}

func TestReturnRatePerDimZeroSales(t *testing.T) {
	sales := salesTable(salesRow(2024, 1, "Widget", 1000))
	returns := &model.Table{
		Kind:    model.KindReturns,
		Binding: sales.Binding,
		Rows: []model.Row{
			{Month: month(2024, 1), Value: decimal.NewFromInt(-50), Product: "Orphan"},
		},
	}
	e := New(sales, returns)

	dim := model.RoleProduct
	res, err := e.ReturnRate(nil, &dim)
	if err != nil {
		t.Fatalf("ReturnRate: %v", err)
	}
	if len(res.PerDim) != 1 {
		t.Fatalf("per-dim = %v", res.PerDim)
	}
	if res.PerDim[0].OK {
		t.Errorf("returns without matching sales must be flagged not-OK: %+v", res.PerDim[0])
	}
}

func TestTrendMonthFillsGaps(t *testing.T) {
	tbl := salesTable(
		salesRow(2024, 1, "Widget", 100),
		salesRow(2024, 3, "Widget", 300),
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.Trend(MetricValue, model.KindSales, ResMonth)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("points = %v, want 3", got)
	}
	if got[1].Label != "Feb/2024" || !got[1].Value.IsZero() {
		t.Errorf("gap month = %+v, want explicit zero for Feb/2024", got[1])
	}
	if got[0].Label != "Jan/2024" || got[2].Label != "Mar/2024" {
		t.Errorf("labels = %q %q %q", got[0].Label, got[1].Label, got[2].Label)
	}
}

func TestTrendDayFillsGaps(t *testing.T) {
	tbl := salesTable(
		model.Row{Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Month: month(2024, 3), Value: decimal.NewFromInt(10)},
		model.Row{Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Month: month(2024, 3), Value: decimal.NewFromInt(30)},
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.Trend(MetricValue, model.KindSales, ResDay)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(got) != 3 || got[1].Label != "2024-03-02" || !got[1].Value.IsZero() {
		t.Errorf("day trend = %v", got)
	}
}

func TestTrendWeekdayFixedDomain(t *testing.T) {
	tbl := salesTable(
		// 2024-03-04 is a Monday
		model.Row{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Month: month(2024, 3), Value: decimal.NewFromInt(10)},
	)
	e := New(tbl, emptyReturns(tbl.Binding))

	got, err := e.Trend(MetricValue, model.KindSales, ResWeekday)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(got) != 7 || got[0].Label != "Monday" || got[6].Label != "Sunday" {
		t.Fatalf("weekday domain = %v", got)
	}
	if got[0].Value.String() != "10" || !got[1].Value.IsZero() {
		t.Errorf("weekday sums = %v", got)
	}
}

func TestParseDimRejectsMetrics(t *testing.T) {
	if _, err := ParseDim("value"); err == nil {
		t.Errorf("value must not parse as a dimension")
	}
	role, err := ParseDim("commercial_month")
	if err != nil || role != model.RoleDate {
		t.Errorf("ParseDim(commercial_month) = %v, %v", role, err)
	}
}

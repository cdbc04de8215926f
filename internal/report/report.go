// Package report packages a report request into the neutral bundle the
// deck templater consumes: title, period, formatted KPIs and the figure
// set. Figures whose underlying metric is unavailable are omitted with
// their slot marked absent; the templater treats absent slots as literal
// removals.
package report

import (
	"errors"
	"fmt"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/chart"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/engine"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Request describes one report.
type Request struct {
	Title          string       `json:"title"`
	PeriodLabel    string       `json:"period_label"` // reference commercial month
	Months         int          `json:"months"`       // window size, months up to and including the reference
	Dims           []model.Role `json:"dims"`         // dimensions to rank
	TopN           int          `json:"top_n"`
	IncludeReturns bool         `json:"include_returns"`
}

// KPI is one formatted headline figure.
type KPI struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Slot is a named figure position. A nil Figure marks the slot absent.
type Slot struct {
	Name   string
	Figure *chart.Figure
}

// Bundle is the templater's input.
type Bundle struct {
	Title   string
	Period  string
	KPIs    []KPI
	Figures []Slot
}

// Figure looks a figure up by slot name.
func (b *Bundle) Figure(name string) (*chart.Figure, bool) {
	for _, s := range b.Figures {
		if s.Name == name && s.Figure != nil {
			return s.Figure, true
		}
	}
	return nil, false
}

// Builder assembles bundles from engine answers.
type Builder struct {
	engine *engine.Engine
}

// NewBuilder wraps an engine bound to the caller's view.
func NewBuilder(e *engine.Engine) *Builder {
	return &Builder{engine: e}
}

// Build runs every aggregation the template may need and packages the
// results. Unavailable answers are skipped, not zeroed.
func (b *Builder) Build(req Request) (*Bundle, error) {
	if req.Months <= 0 {
		req.Months = 1
	}
	if req.TopN <= 0 {
		req.TopN = 10
	}

	ref, err := calendar.ParseLabel(req.PeriodLabel)
	if err != nil {
		return nil, err
	}
	window := calendar.Window(ref, req.Months)
	prior := calendar.Window(window[0].Prev(), req.Months)

	bundle := &Bundle{
		Title:  req.Title,
		Period: periodLabel(window),
	}

	if err := b.buildKPIs(bundle, window, prior, req.IncludeReturns); err != nil {
		return nil, err
	}
	b.buildFigures(bundle, window, prior, req)

	return bundle, nil
}

func periodLabel(window []calendar.Key) string {
	if len(window) == 1 {
		return window[0].Label()
	}
	return fmt.Sprintf("%s – %s", window[0].Label(), window[len(window)-1].Label())
}

func (b *Builder) buildKPIs(bundle *Bundle, window, prior []calendar.Key, includeReturns bool) error {
	cmp, err := b.engine.Compare(prior, window, nil, engine.MetricValue, model.KindSales)
	if err != nil {
		return err
	}
	bundle.KPIs = append(bundle.KPIs, KPI{Name: "Total sales", Value: FormatCurrency(cmp.SumB)})
	if cmp.Rel.OK && !cmp.Rel.New {
		bundle.KPIs = append(bundle.KPIs, KPI{Name: "Growth vs previous period", Value: FormatPercent(cmp.Rel.Value)})
	}

	if includeReturns {
		rr, err := b.engine.ReturnRate(window, nil)
		switch {
		case errors.Is(err, model.ErrUnavailable):
			// zero sales in the window: no rate KPI
		case err != nil:
			return err
		default:
			bundle.KPIs = append(bundle.KPIs, KPI{Name: "Total returns", Value: FormatCurrency(rr.ReturnsTotal)})
			bundle.KPIs = append(bundle.KPIs, KPI{Name: "Return rate", Value: FormatPercent(rr.Rate)})
		}
	}

	return nil
}

func (b *Builder) buildFigures(bundle *Bundle, window, prior []calendar.Key, req Request) {
	for _, dim := range req.Dims {
		name := "top_" + string(dim)
		ranked, err := b.engine.TopN(dim, engine.MetricValue, model.KindSales, req.TopN, engine.AltAbsolute,
			engine.TopNOptions{Period: window})
		if err != nil || len(ranked) == 0 {
			bundle.Figures = append(bundle.Figures, Slot{Name: name})
			continue
		}
		bundle.Figures = append(bundle.Figures, Slot{Name: name, Figure: barFromRanked(name, dim, ranked)})
	}

	trend, err := b.engine.Trend(engine.MetricValue, model.KindSales, engine.ResMonth)
	if err != nil || len(trend) == 0 {
		bundle.Figures = append(bundle.Figures, Slot{Name: "trend"})
	} else {
		bundle.Figures = append(bundle.Figures, Slot{Name: "trend", Figure: lineFromPoints("trend", "Sales by commercial month", trend)})
	}

	if req.IncludeReturns {
		b.buildReturnFigure(bundle, window, req)
	}
}

func (b *Builder) buildReturnFigure(bundle *Bundle, window []calendar.Key, req Request) {
	if len(req.Dims) == 0 {
		bundle.Figures = append(bundle.Figures, Slot{Name: "returns"})
		return
	}
	dim := req.Dims[0]
	rr, err := b.engine.ReturnRate(window, &dim)
	if err != nil || len(rr.PerDim) == 0 {
		bundle.Figures = append(bundle.Figures, Slot{Name: "returns"})
		return
	}

	fig := &chart.Figure{
		Name:  "returns",
		Kind:  chart.KindBar,
		Title: fmt.Sprintf("Return rate by %s", dim),
	}
	series := chart.Series{Name: "return rate"}
	n := req.TopN
	for _, e := range rr.PerDim {
		if !e.OK {
			continue
		}
		if n == 0 {
			break
		}
		n--
		fig.Labels = append(fig.Labels, e.Dim)
		rate, _ := e.Rate.Float64()
		series.Values = append(series.Values, rate)
	}
	fig.Series = []chart.Series{series}
	if len(fig.Labels) == 0 {
		bundle.Figures = append(bundle.Figures, Slot{Name: "returns"})
		return
	}
	bundle.Figures = append(bundle.Figures, Slot{Name: "returns", Figure: fig})
}

func barFromRanked(name string, dim model.Role, ranked []engine.Ranked) *chart.Figure {
	fig := &chart.Figure{
		Name:  name,
		Kind:  chart.KindBar,
		Title: fmt.Sprintf("Top %d by %s", len(ranked), dim),
	}
	series := chart.Series{Name: "sales"}
	for _, r := range ranked {
		fig.Labels = append(fig.Labels, r.Dim)
		v, _ := r.Value.Float64()
		series.Values = append(series.Values, v)
	}
	fig.Series = []chart.Series{series}
	return fig
}

func lineFromPoints(name, title string, points []engine.Point) *chart.Figure {
	fig := &chart.Figure{Name: name, Kind: chart.KindLine, Title: title}
	series := chart.Series{Name: "sales"}
	for _, p := range points {
		fig.Labels = append(fig.Labels, p.Label)
		v, _ := p.Value.Float64()
		series.Values = append(series.Values, v)
	}
	fig.Series = []chart.Series{series}
	return fig
}

package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/chart"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/report"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="xml" ContentType="application/xml"/></Types>`

func slideXML(body string) string {
	return `<p:sld><p:cSld><p:spTree>` + body + `</p:spTree></p:cSld></p:sld>`
}

func textShape(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:txBody><a:p>`)
	for _, r := range runs {
		b.WriteString(`<a:r><a:t>` + r + `</a:t></a:r>`)
	}
	b.WriteString(`</a:p></p:txBody></p:sp>`)
	return b.String()
}

func chartShape(token string) string {
	return `<p:sp><p:spPr><a:xfrm><a:off x="914400" y="914400"/>` +
		`<a:ext cx="4762500" cy="2857500"/></a:xfrm></p:spPr>` +
		`<p:txBody><a:p><a:r><a:t>` + token + `</a:t></a:r></a:p></p:txBody></p:sp>`
}

func buildTemplate(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	write("[Content_Types].xml", contentTypesXML)
	for name, content := range parts {
		write(name, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readDeck(t *testing.T, deck []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(deck), int64(len(deck)))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type stubRenderer struct {
	err   error
	calls int
	lastW int
	lastH int
}

func (r *stubRenderer) Render(_ context.Context, _ *chart.Figure, w, h int) ([]byte, error) {
	r.calls++
	r.lastW, r.lastH = w, h
	if r.err != nil {
		return nil, r.err
	}
	return pngBytes, nil
}

func testBundle() *report.Bundle {
	return &report.Bundle{
		Title:  "March review",
		Period: "Mar/2024",
		KPIs: []report.KPI{
			{Name: "Total sales", Value: "1,500.00"},
			{Name: "Return rate", Value: "+10.00%"},
		},
		Figures: []report.Slot{
			{Name: "trend", Figure: &chart.Figure{Name: "trend", Kind: chart.KindLine}},
			{Name: "returns"}, // absent slot
		},
	}
}

func TestRenderSubstitutesTextTokens(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(
			textShape("{{TITLE}}") + textShape("{{PERIOD}}") + textShape("{{METRICS}}"),
		),
	})
	tp := &Templater{Renderer: &stubRenderer{}}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	slide := readDeck(t, res.Deck)["ppt/slides/slide1.xml"]

	if !strings.Contains(slide, ">March review<") {
		t.Errorf("title not substituted: %s", slide)
	}
	if !strings.Contains(slide, ">Mar/2024<") {
		t.Errorf("period not substituted")
	}
	if !strings.Contains(slide, "• Total sales: 1,500.00") || !strings.Contains(slide, "• Return rate: +10.00%") {
		t.Errorf("metrics not substituted: %s", slide)
	}
	if strings.Contains(slide, "{{") {
		t.Errorf("tokens left behind: %s", slide)
	}
}

// Authoring tools split tokens across runs; the joined paragraph text must
// still substitute, with the full text landing in the first run.
func TestRenderJoinsSplitRuns(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(textShape("{{TI", "TLE}}")),
	})
	tp := &Templater{Renderer: &stubRenderer{}}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	slide := readDeck(t, res.Deck)["ppt/slides/slide1.xml"]

	if !strings.Contains(slide, "<a:t>March review</a:t><a:t></a:t>") {
		t.Errorf("split-run substitution wrong: %s", slide)
	}
}

func TestRenderLeavesUnrecognizedTokens(t *testing.T) {
	original := slideXML(textShape("{{CUSTOM_FIELD}}") + textShape("plain text"))
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": original,
	})
	tp := &Templater{Renderer: &stubRenderer{}}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	slide := readDeck(t, res.Deck)["ppt/slides/slide1.xml"]

	if slide != original {
		t.Errorf("slide without recognized tokens must be byte-identical\n got: %s\nwant: %s", slide, original)
	}
}

func TestRenderInsertsChart(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(chartShape("{{CHART_trend}}")),
	})
	r := &stubRenderer{}
	tp := &Templater{Renderer: r}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	parts := readDeck(t, res.Deck)
	slide := parts["ppt/slides/slide1.xml"]

	if !strings.Contains(slide, "<p:pic>") || !strings.Contains(slide, `r:embed="rIdChart1"`) {
		t.Errorf("picture not injected: %s", slide)
	}
	// the placeholder's geometry carries over to the picture
	if !strings.Contains(slide, `<a:off x="914400" y="914400"/>`) {
		t.Errorf("picture geometry lost: %s", slide)
	}
	if strings.Contains(slide, "{{CHART") {
		t.Errorf("placeholder text not cleared")
	}

	if got := parts["ppt/media/realh_chart1.png"]; got != string(pngBytes) {
		t.Errorf("media part missing or wrong")
	}
	rels := parts["ppt/slides/_rels/slide1.xml.rels"]
	if !strings.Contains(rels, `Id="rIdChart1"`) || !strings.Contains(rels, "../media/realh_chart1.png") {
		t.Errorf("relationship missing: %s", rels)
	}
	if !strings.Contains(parts["[Content_Types].xml"], `Extension="png"`) {
		t.Errorf("png content type missing")
	}

	// renderer sized from the placeholder extent
	if r.lastW != 4762500/9525 || r.lastH != 2857500/9525 {
		t.Errorf("render size = %dx%d", r.lastW, r.lastH)
	}
}

func TestRenderBareChartConsumesInOrder(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(chartShape("{{CHART}}") + chartShape("{{CHART}}")),
	})
	r := &stubRenderer{}
	tp := &Templater{Renderer: r}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// only one present figure in the bundle: the second placeholder stays blank
	if r.calls != 1 {
		t.Errorf("renderer called %d times, want 1", r.calls)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("an unmatched placeholder is not a warning: %v", res.Warnings)
	}
}

// A figure that fails to render degrades to a warning; the deck still
// emits with the slot blank.
func TestRenderFailureBecomesWarning(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(chartShape("{{CHART_trend}}")),
	})
	tp := &Templater{Renderer: &stubRenderer{err: errors.New("renderer crashed")}}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Figure != "trend" {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	parts := readDeck(t, res.Deck)
	slide := parts["ppt/slides/slide1.xml"]
	if strings.Contains(slide, "<p:pic>") {
		t.Errorf("failed figure must leave the slot blank")
	}
	if strings.Contains(slide, "{{CHART") {
		t.Errorf("placeholder must still be cleared")
	}
	if _, ok := parts["ppt/media/realh_chart1.png"]; ok {
		t.Errorf("no media part for a failed figure")
	}
}

func TestRenderAbsentFigureStaysBlank(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(chartShape("{{CHART_returns}}")),
	})
	r := &stubRenderer{}
	tp := &Templater{Renderer: r}

	res, err := tp.Render(context.Background(), template, testBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.calls != 0 {
		t.Errorf("absent figure must not reach the renderer")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("absent figure is not a warning: %v", res.Warnings)
	}
	slide := readDeck(t, res.Deck)["ppt/slides/slide1.xml"]
	if strings.Contains(slide, "{{CHART") || strings.Contains(slide, "<p:pic>") {
		t.Errorf("absent slot must be blank: %s", slide)
	}
}

func TestRenderRejectsMalformedTemplate(t *testing.T) {
	tp := &Templater{Renderer: &stubRenderer{}}
	_, err := tp.Render(context.Background(), []byte("not a zip"), testBundle())
	var te *model.TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("expected *model.TemplateError, got %v", err)
	}
}

func TestRenderHonorsCancellation(t *testing.T) {
	template := buildTemplate(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(chartShape("{{CHART_trend}}")),
	})
	tp := &Templater{Renderer: &stubRenderer{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tp.Render(ctx, template, testBundle()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSlideOrdering(t *testing.T) {
	paths := []string{"ppt/slides/slide10.xml", "ppt/slides/slide2.xml", "ppt/slides/slide1.xml"}
	sortSlidePaths(paths)
	want := []string{"ppt/slides/slide1.xml", "ppt/slides/slide2.xml", "ppt/slides/slide10.xml"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("order = %v", paths)
		}
	}
}

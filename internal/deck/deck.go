// Package deck renders a report bundle into a slide deck by placeholder
// substitution: {{TITLE}}, {{PERIOD}} and {{METRICS}} become text,
// {{CHART}} tokens become rendered figure images placed at the
// placeholder's position and size. Unrecognized tokens are left as-is so
// templates can be iterated on without breaking renders.
package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/chart"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/report"
)

// DefaultFigureTimeout bounds one figure render.
const DefaultFigureTimeout = 10 * time.Second

// Warning records a figure that failed to render. The deck still emits;
// the slot stays blank.
type Warning struct {
	Figure string `json:"figure"`
	Reason string `json:"reason"`
}

// Result is a finished deck plus its per-slot warnings.
type Result struct {
	Deck     []byte
	Warnings []Warning
}

// Templater substitutes a bundle into a pptx template.
type Templater struct {
	Renderer      chart.Renderer
	FigureTimeout time.Duration
}

// chartInsert is one scheduled image injection.
type chartInsert struct {
	figure *chart.Figure
	geo    geometry
}

// Render produces the output deck. A malformed or unreadable template is
// fatal (*model.TemplateError); figure render failures are downgraded to
// warnings. Cancellation is honored between figures: a render that has
// started runs to completion or timeout.
func (t *Templater) Render(ctx context.Context, template []byte, bundle *report.Bundle) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, &model.TemplateError{Err: fmt.Errorf("not a valid deck file: %w", err)}
	}

	parts := make(map[string][]byte, len(zr.File))
	order := make([]string, 0, len(zr.File))
	var slides []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &model.TemplateError{Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &model.TemplateError{Err: err}
		}
		parts[f.Name] = data
		order = append(order, f.Name)
		if reSlidePath.MatchString(f.Name) {
			slides = append(slides, f.Name)
		}
	}
	sortSlidePaths(slides)

	timeout := t.FigureTimeout
	if timeout <= 0 {
		timeout = DefaultFigureTimeout
	}

	res := &Result{}
	used := make(map[string]bool) // figures consumed by bare {{CHART}}
	imageSeq := 0

	for _, slidePath := range slides {
		doc := string(parts[slidePath])

		doc, inserts := t.substituteSlide(doc, bundle, used)

		for _, ins := range inserts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			png, err := t.renderFigure(ctx, ins.figure, ins.geo, timeout)
			if err != nil {
				log.Printf("deck: figure %s skipped: %v", ins.figure.Name, err)
				res.Warnings = append(res.Warnings, Warning{Figure: ins.figure.Name, Reason: err.Error()})
				continue
			}

			imageSeq++
			mediaPath := fmt.Sprintf("ppt/media/realh_chart%d.png", imageSeq)
			relID := fmt.Sprintf("rIdChart%d", imageSeq)

			parts[mediaPath] = png
			order = append(order, mediaPath)

			relsPath := relsPathFor(slidePath)
			existing, had := parts[relsPath]
			parts[relsPath] = []byte(addRelationship(string(existing), relID, "../media/"+strings.TrimPrefix(mediaPath, "ppt/media/")))
			if !had {
				order = append(order, relsPath)
			}

			doc = insertBeforeClose(doc, "</p:spTree>", pictureXML(1000+imageSeq, ins.figure.Name, relID, ins.geo))
		}

		parts[slidePath] = []byte(doc)
	}

	if imageSeq > 0 {
		if ct, ok := parts["[Content_Types].xml"]; ok {
			parts["[Content_Types].xml"] = []byte(ensurePNGContentType(string(ct)))
		}
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(parts[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	res.Deck = out.Bytes()
	return res, nil
}

// substituteSlide performs the single pass over a slide's shapes: chart
// placeholders are cleared and scheduled for image injection, text tokens
// are substituted in place.
func (t *Templater) substituteSlide(doc string, bundle *report.Bundle, used map[string]bool) (string, []chartInsert) {
	var inserts []chartInsert

	// chart placeholders first, per shape, so the shape's geometry is at hand
	doc = reShape.ReplaceAllStringFunc(doc, func(shape string) string {
		text := paragraphText(shape)
		token, ok := findChartToken(text)
		if !ok {
			return shape
		}

		fig, ok := resolveFigure(bundle, token, used)
		cleared := clearShapeText(shape)
		if !ok {
			// absent figure: the slot stays blank, never an error
			return cleared
		}
		inserts = append(inserts, chartInsert{figure: fig, geo: shapeGeometry(shape)})
		return cleared
	})

	// text tokens, per paragraph, preserving runs that carry no token
	doc = reParagraph.ReplaceAllStringFunc(doc, func(p string) string {
		text := paragraphText(p)
		if !hasRecognizedTextToken(text) {
			return p
		}
		return setParagraphText(p, substituteTextTokens(text, bundle))
	})

	return doc, inserts
}

func (t *Templater) renderFigure(ctx context.Context, fig *chart.Figure, geo geometry, timeout time.Duration) ([]byte, error) {
	if t.Renderer == nil {
		return nil, fmt.Errorf("no renderer configured")
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return t.Renderer.Render(rctx, fig, geo.widthPx(), geo.heightPx())
}

// findChartToken returns the first chart token name in a text, if any.
func findChartToken(text string) (string, bool) {
	for _, m := range reToken.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "CHART" || strings.HasPrefix(name, "CHART_") {
			return name, true
		}
	}
	return "", false
}

// resolveFigure maps a chart token to a bundle figure. {{CHART_x}} looks
// up the figure named x (case-insensitive); bare {{CHART}} consumes the
// next unused present figure in bundle order.
func resolveFigure(bundle *report.Bundle, token string, used map[string]bool) (*chart.Figure, bool) {
	if name, ok := strings.CutPrefix(token, "CHART_"); ok {
		fig, ok := bundle.Figure(strings.ToLower(name))
		return fig, ok
	}
	for _, slot := range bundle.Figures {
		if slot.Figure == nil || used[slot.Name] {
			continue
		}
		used[slot.Name] = true
		return slot.Figure, true
	}
	return nil, false
}

func hasRecognizedTextToken(text string) bool {
	for _, m := range reToken.FindAllStringSubmatch(text, -1) {
		switch m[1] {
		case "TITLE", "PERIOD", "METRICS":
			return true
		}
	}
	return false
}

// substituteTextTokens replaces recognized text tokens and leaves every
// other token untouched.
func substituteTextTokens(text string, bundle *report.Bundle) string {
	return reToken.ReplaceAllStringFunc(text, func(tok string) string {
		switch reToken.FindStringSubmatch(tok)[1] {
		case "TITLE":
			return bundle.Title
		case "PERIOD":
			return bundle.Period
		case "METRICS":
			lines := make([]string, 0, len(bundle.KPIs))
			for _, k := range bundle.KPIs {
				lines = append(lines, fmt.Sprintf("• %s: %s", k.Name, k.Value))
			}
			return strings.Join(lines, "\n")
		}
		return tok
	})
}

func relsPathFor(slidePath string) string {
	name := strings.TrimPrefix(slidePath, "ppt/slides/")
	return "ppt/slides/_rels/" + name + ".rels"
}

// Package chart defines the neutral figure model handed to the rendering
// collaborator. Figures are declarative; the templater treats them as
// opaque handles and only calls back through Renderer to obtain PNG bytes.
package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// Kind selects the chart shape.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Series is one named value series.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Figure is a renderable chart description.
type Figure struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Renderer turns a figure into PNG bytes at the requested pixel size.
// Implementations must respect ctx: rendering either completes or the
// context's deadline ends it; no partial output is returned.
type Renderer interface {
	Render(ctx context.Context, fig *Figure, widthPx, heightPx int) ([]byte, error)
}

// renderRequest is the wire form handed to the external renderer.
type renderRequest struct {
	Figure *Figure `json:"figure"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// ExecRenderer shells out to an external chart tool (typically a headless
// browser wrapper): the request goes to stdin as JSON, the PNG comes back
// on stdout.
type ExecRenderer struct {
	Command string
	Args    []string
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// Render implements Renderer.
func (r *ExecRenderer) Render(ctx context.Context, fig *Figure, widthPx, heightPx int) ([]byte, error) {
	if r.Command == "" {
		return nil, errors.New("no render command configured")
	}

	payload, err := json.Marshal(renderRequest{Figure: fig, Width: widthPx, Height: heightPx})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render %s: %w", fig.Name, ctx.Err())
		}
		return nil, fmt.Errorf("render %s: %w (%s)", fig.Name, err, stderr.String())
	}

	png := out.Bytes()
	if !bytes.HasPrefix(png, pngMagic) {
		return nil, fmt.Errorf("render %s: output is not a PNG", fig.Name)
	}
	return png, nil
}

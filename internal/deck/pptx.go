package deck

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Slide XML is manipulated as text, not through an XML DOM: untouched
// markup must survive byte-identical, and OOXML does not round-trip
// losslessly through encoding/xml.

var (
	reParagraph = regexp.MustCompile(`(?s)<a:p(?:>|\s[^>]*>).*?</a:p>`)
	reShape     = regexp.MustCompile(`(?s)<p:sp>.*?</p:sp>|<p:sp\s[^>]*>.*?</p:sp>`)
	reRunText   = regexp.MustCompile(`(?s)<a:t(?:/>|>(.*?)</a:t>)`)
	reToken     = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)
	reOffset    = regexp.MustCompile(`<a:off x="(-?\d+)" y="(-?\d+)"\s*/>`)
	reExtent    = regexp.MustCompile(`<a:ext cx="(\d+)" cy="(\d+)"\s*/>`)
	reSlidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// paragraphText joins the text of every run in an XML fragment. Tokens
// split across runs by the authoring tool become whole again here.
func paragraphText(fragment string) string {
	var b strings.Builder
	for _, m := range reRunText.FindAllStringSubmatch(fragment, -1) {
		if len(m) > 1 {
			b.WriteString(m[1])
		}
	}
	return b.String()
}

// setParagraphText rewrites a paragraph so its first run carries text and
// every other run is empty. The first run's formatting wins; that is the
// documented restriction for tokens split across differently-formatted
// runs.
func setParagraphText(paragraph, text string) string {
	first := true
	return reRunText.ReplaceAllStringFunc(paragraph, func(string) string {
		if first {
			first = false
			return "<a:t>" + xmlEscape(text) + "</a:t>"
		}
		return "<a:t></a:t>"
	})
}

// clearShapeText empties every run in a shape fragment.
func clearShapeText(shape string) string {
	return reRunText.ReplaceAllString(shape, "<a:t></a:t>")
}

// geometry is a shape's placement in EMU.
type geometry struct {
	X, Y   int64
	CX, CY int64
}

// emuPerPixel converts EMU to pixels at 96 DPI (914400 EMU per inch).
const emuPerPixel = 9525

func (g geometry) widthPx() int  { return int(g.CX / emuPerPixel) }
func (g geometry) heightPx() int { return int(g.CY / emuPerPixel) }

// shapeGeometry extracts a shape's offset and extent. Shapes without an
// explicit transform fall back to a centered default block.
func shapeGeometry(shape string) geometry {
	g := geometry{X: 838200, Y: 838200, CX: 7315200, CY: 4572000}
	if m := reOffset.FindStringSubmatch(shape); m != nil {
		fmt.Sscan(m[1], &g.X)
		fmt.Sscan(m[2], &g.Y)
	}
	if m := reExtent.FindStringSubmatch(shape); m != nil {
		fmt.Sscan(m[1], &g.CX)
		fmt.Sscan(m[2], &g.CY)
	}
	return g
}

// pictureXML builds the p:pic element injected for a rendered figure.
func pictureXML(id int, name, relID string, g geometry) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, xmlEscape(name), relID, g.X, g.Y, g.CX, g.CY)
}

// insertBeforeClose injects fragment just before the closing tag.
func insertBeforeClose(doc, closeTag, fragment string) string {
	idx := strings.LastIndex(doc, closeTag)
	if idx < 0 {
		return doc
	}
	return doc[:idx] + fragment + doc[idx:]
}

// addRelationship appends an image relationship to a slide rels document,
// creating the document when the slide had none.
func addRelationship(rels, relID, target string) string {
	if rels == "" {
		rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`, relID, target)
	return insertBeforeClose(rels, "</Relationships>", rel)
}

// ensurePNGContentType adds the png Default to [Content_Types].xml once.
func ensurePNGContentType(doc string) string {
	if strings.Contains(doc, `Extension="png"`) {
		return doc
	}
	return insertBeforeClose(doc, "</Types>",
		`<Default Extension="png" ContentType="image/png"/>`)
}

// sortSlidePaths orders slide entries by slide number.
func sortSlidePaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return slideNumber(paths[i]) < slideNumber(paths[j])
	})
}

func slideNumber(path string) int {
	m := reSlidePath.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	var n int
	fmt.Sscan(m[1], &n)
	return n
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

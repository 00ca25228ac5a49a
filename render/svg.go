package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/TFMV/fdgraph/models"
)

// bidirectionalOffset separates the two lines of a reciprocal edge pair
const bidirectionalOffset = 8

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders graphs as Scalable Vector Graphics (SVG) with labelled boxes"
}

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	boxes := options.Boxes
	if boxes == nil {
		boxes = NewBoxMetrics()
	}

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, escape(options.Background))

	buf.WriteString(`<defs>
  <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5"
      markerWidth="6" markerHeight="6" orient="auto-start-reverse">
    <path d="M0,0 L10,5 L0,10 z" fill="#666666"/>
  </marker>
</defs>
`)

	for _, e := range graph.Edges() {
		source, target := graph.Endpoints(e)
		from, to := source.Pos, target.Pos
		if e.Bidirectional {
			from, to = offsetLine(from, to, bidirectionalOffset)
		}

		color := e.Colour
		if color == "" {
			color = "#666666"
		}
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2" marker-end="url(#arrow)"/>
`, from.X, from.Y, to.X, to.Y, escape(color))

		if options.ShowEdgeLabels {
			mid := from.Add(to).Scale(0.5)
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="12" fill="%s" text-anchor="middle">%s</text>
`, mid.X, mid.Y, escape(color), escape(EdgeLabel(e)))
		}
	}

	for _, v := range graph.Vertices() {
		w, h := boxes.Size(v)
		fill := v.Colour
		if fill == "" {
			fill = "grey"
		}
		stroke, strokeWidth := "#000000", 3
		if v.Selected() {
			stroke, strokeWidth = "#22fff0", 4
		}

		fmt.Fprintf(&buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="%d"/>
`, v.Pos.X-w/2, v.Pos.Y-h/2, w, h, escape(fill), stroke, strokeWidth)

		if options.ShowLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#000000" text-anchor="middle" dominant-baseline="middle">%s</text>
`, v.Pos.X, v.Pos.Y, boxes.Font(v), escape(v.Label))
		}
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// offsetLine shifts a segment sideways by d, to the right of its direction
func offsetLine(from, to models.Vec, d float64) (models.Vec, models.Vec) {
	dir := to.Sub(from)
	length := dir.Len()
	if length == 0 {
		return from, to
	}
	normal := models.Vec{X: -dir.Y, Y: dir.X}.Scale(d / length)
	return from.Add(normal), to.Add(normal)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/fdgraph/models"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format         string      // Output format (svg, json, dot)
	Width          float64     // Width of the output
	Height         float64     // Height of the output
	Background     string      // Background color
	Timestamp      bool        // Include generation time
	ShowLabels     bool        // Show vertex labels
	ShowEdgeLabels bool        // Show edge labels
	Boxes          *BoxMetrics // Vertex box sizing
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the graph using the provided options
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:         format,
		Width:          800,
		Height:         600,
		Background:     "#f8f8f8",
		ShowLabels:     true,
		ShowEdgeLabels: true,
		Boxes:          NewBoxMetrics(),
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// EdgeLabel joins every relation label on an edge
func EdgeLabel(e *models.Edge) string {
	return e.Label(", ")
}

// JSONRenderer outputs the graph snapshot as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders graph as JSON data for machine consumption or custom visualizations"
}

// Render creates a JSON representation of the graph
func (r *JSONRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	type jsonGraph struct {
		models.Snapshot
		Metadata map[string]interface{} `json:"metadata"`
	}

	data := jsonGraph{
		Snapshot: graph.Snapshot(),
		Metadata: map[string]interface{}{
			"width":       options.Width,
			"height":      options.Height,
			"background":  options.Background,
			"vertexCount": graph.Len(),
			"edgeCount":   graph.EdgeCount(),
		},
	}
	if options.Timestamp {
		data.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	return json.MarshalIndent(data, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders graph in Graphviz DOT format with pinned positions"
}

// Render creates a DOT representation of the graph
func (r *DOTRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	boxes := options.Boxes
	if boxes == nil {
		boxes = NewBoxMetrics()
	}

	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%s, size=\"%g,%g\"];\n",
		strconv.Quote(options.Background), options.Width/72.0, options.Height/72.0)
	buf.WriteString("  node [shape=box, style=filled, fontname=\"Arial\"];\n")
	buf.WriteString("  edge [fontname=\"Arial\"];\n")

	for _, v := range graph.Vertices() {
		label := v.Label
		if label == "" {
			label = v.ID
		}
		color := v.Colour
		if color == "" {
			color = "grey"
		}
		fmt.Fprintf(&buf, "  %s [label=%s, fillcolor=%s, fontsize=%g, pos=\"%g,%g!\"];\n",
			strconv.Quote(v.ID), strconv.Quote(label), strconv.Quote(color),
			boxes.Font(v), v.Pos.X/72.0, -v.Pos.Y/72.0)
	}

	for _, e := range graph.Edges() {
		color := e.Colour
		if color == "" {
			color = "#666666"
		}
		attrs := fmt.Sprintf("color=%s", strconv.Quote(color))
		if options.ShowEdgeLabels {
			attrs += fmt.Sprintf(", label=%s", strconv.Quote(EdgeLabel(e)))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", strconv.Quote(e.SourceID), strconv.Quote(e.TargetID), attrs)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

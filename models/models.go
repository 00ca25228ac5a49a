// Package models provides the mutable entity graph used by the layout engine.
// It defines vertices, typed edges and the Graph aggregate that owns them.
package models

import "strings"

// DefaultPosition is where a vertex sits until the layout initializer places it
var DefaultPosition = Vec{X: 200, Y: 200}

// Vertex represents one entity node
type Vertex struct {
	ID       string
	Label    string
	Type     string
	Image    string
	Pos      Vec
	Velocity Vec
	Colour   string

	edges     []int // indices into Graph.edges, discovery order
	selected  bool
	expanding bool
}

// Degree returns the number of incident edges
func (v *Vertex) Degree() int {
	return len(v.edges)
}

// Mass returns the vertex mass used to scale forces. Degree-0 vertices weigh 1.
func (v *Vertex) Mass() float64 {
	if len(v.edges) == 0 {
		return 1
	}
	return float64(len(v.edges))
}

// Selected reports whether the vertex is held by the user
func (v *Vertex) Selected() bool {
	return v.selected
}

// Expanding reports whether an expansion targeting this vertex is in flight
func (v *Vertex) Expanding() bool {
	return v.expanding
}

// SetExpanding sets the in-flight expansion flag
func (v *Vertex) SetExpanding(expanding bool) {
	v.expanding = expanding
}

// KillVelocity zeroes the vertex velocity
func (v *Vertex) KillVelocity() {
	v.Velocity = Vec{}
}

// Edge is a typed relation from one vertex to another. Source and Target are
// indices into the owning Graph's vertex table.
type Edge struct {
	SourceID      string
	TargetID      string
	Source        int
	Target        int
	Types         []string
	Bidirectional bool
	Colour        string
}

// MainType returns the first relation label
func (e *Edge) MainType() string {
	if len(e.Types) == 0 {
		return ""
	}
	return e.Types[0]
}

// Label joins all relation labels with sep
func (e *Edge) Label(sep string) string {
	return strings.Join(e.Types, sep)
}

// HasType reports whether label is one of the edge's relation labels
func (e *Edge) HasType(label string) bool {
	for _, t := range e.Types {
		if t == label {
			return true
		}
	}
	return false
}

type pair struct {
	source, target int
}

// Graph owns all vertices and edges. It is not safe for concurrent use;
// graph.Manager provides the locking.
type Graph struct {
	vertices []*Vertex
	index    map[string]int
	edges    []*Edge
	pairs    map[pair]int

	origins      []*Vertex
	selected     *Vertex
	lastSelected *Vertex
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		pairs: make(map[pair]int),
	}
}

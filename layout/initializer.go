package layout

import "github.com/TFMV/fdgraph/models"

// Initializer places vertices on circles
type Initializer struct {
	Center          models.Vec
	ComponentRadius float64 // distance of component centres from Center
	LayerRadius     float64 // radius step between BFS layers
	AppendRadius    float64 // radius of the ring new vertices are placed on
}

// NewInitializer creates an initializer for a canvas of the given size
func NewInitializer(width, height float64) *Initializer {
	return &Initializer{
		Center:          models.Vec{X: width / 2, Y: height / 2},
		ComponentRadius: 200,
		LayerRadius:     100,
		AppendRadius:    200,
	}
}

// InitPositions lays out every vertex from scratch and resets the graph's
// component origins
func (l *Initializer) InitPositions(g *models.Graph) {
	components := Components(g)
	g.SetComponentOrigins(Origins(components))

	centres := CirclePoints(l.Center, l.ComponentRadius, len(components))
	for i, c := range components {
		for level, nodes := range c.Layers {
			radius := float64(level+1) * l.LayerRadius
			positions := CirclePoints(centres[i], radius, len(nodes))
			for j, v := range nodes {
				v.Pos = positions[j]
			}
		}
	}
}

// AppendPositions rings the vertices named in newIDs around an anchor. The
// anchor is the supplied point, else the centroid of the other vertices,
// else the canvas centre. Other vertices are never moved.
func (l *Initializer) AppendPositions(g *models.Graph, newIDs []string, anchor *models.Vec) {
	if len(newIDs) == 0 {
		return
	}
	fresh := make(map[string]bool, len(newIDs))
	for _, id := range newIDs {
		fresh[id] = true
	}

	centre := l.Center
	if anchor != nil {
		centre = *anchor
	} else {
		var sum models.Vec
		old := 0
		for _, v := range g.Vertices() {
			if !fresh[v.ID] {
				sum = sum.Add(v.Pos)
				old++
			}
		}
		if old > 0 {
			centre = sum.Div(float64(old))
		}
	}

	var placed []*models.Vertex
	for _, id := range newIDs {
		if v, ok := g.Vertex(id); ok {
			placed = append(placed, v)
		}
	}
	positions := CirclePoints(centre, l.AppendRadius, len(placed))
	for i, v := range placed {
		v.Pos = positions[i]
	}
}

// UpdateComponents recomputes component origins without moving anything.
// Appends can bridge or split components, so callers run it after merging.
func (l *Initializer) UpdateComponents(g *models.Graph) {
	g.SetComponentOrigins(Origins(Components(g)))
}

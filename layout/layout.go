// Package layout assigns deterministic starting positions to graph vertices.
// Connected components are found by breadth-first search, and each BFS layer
// is packed onto a concentric circle around its component's centre.
package layout

import (
	"math"

	"github.com/TFMV/fdgraph/models"
)

// angularOffset keeps small layers from lining up on a straight axis
const angularOffset = math.Pi / 18

// Component is one connected component grouped by BFS depth from its root
type Component struct {
	Layers [][]*models.Vertex
}

// Origin returns the BFS root of the component
func (c Component) Origin() *models.Vertex {
	return c.Layers[0][0]
}

// Size returns the number of vertices in the component
func (c Component) Size() int {
	n := 0
	for _, layer := range c.Layers {
		n += len(layer)
	}
	return n
}

// CirclePoints returns n points evenly spaced around center, starting near
// the top of the circle
func CirclePoints(center models.Vec, radius float64, n int) []models.Vec {
	if n <= 0 {
		return nil
	}
	points := make([]models.Vec, n)
	for i := 0; i < n; i++ {
		theta := (angularOffset+2*math.Pi*float64(i))/float64(n) - math.Pi/2
		points[i] = models.Vec{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		}
	}
	return points
}

// Components partitions the graph into connected components over the
// undirected neighbour relation. Roots are taken in vertex insertion order.
func Components(g *models.Graph) []Component {
	vertices := g.Vertices()
	visited := make([]bool, len(vertices))
	var components []Component

	for i, root := range vertices {
		if visited[i] {
			continue
		}
		visited[i] = true

		var layers [][]*models.Vertex
		current := []*models.Vertex{root}
		for len(current) > 0 {
			layers = append(layers, current)
			var next []*models.Vertex
			for _, v := range current {
				for _, n := range g.Neighbours(v) {
					idx := g.IndexOf(n.ID)
					if visited[idx] {
						continue
					}
					visited[idx] = true
					next = append(next, n)
				}
			}
			current = next
		}
		components = append(components, Component{Layers: layers})
	}
	return components
}

// Origins returns the root vertex of each component
func Origins(components []Component) []*models.Vertex {
	origins := make([]*models.Vertex, 0, len(components))
	for _, c := range components {
		origins = append(origins, c.Origin())
	}
	return origins
}

// Frontier returns the ids reachable from start within depth hops, in BFS
// order, start first
func Frontier(g *models.Graph, start *models.Vertex, depth int) []string {
	visited := map[string]bool{start.ID: true}
	frontier := []string{start.ID}
	current := []*models.Vertex{start}
	for hop := 0; hop < depth && len(current) > 0; hop++ {
		var next []*models.Vertex
		for _, v := range current {
			for _, n := range g.Neighbours(v) {
				if visited[n.ID] {
					continue
				}
				visited[n.ID] = true
				frontier = append(frontier, n.ID)
				next = append(next, n)
			}
		}
		current = next
	}
	return frontier
}

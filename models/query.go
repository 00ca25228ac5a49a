package models

// Vertex returns a vertex by its ID
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.vertices[i], true
}

// VertexAt returns the vertex stored at arena index i
func (g *Graph) VertexAt(i int) *Vertex {
	return g.vertices[i]
}

// IndexOf returns the arena index of id, or -1
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Vertices returns all vertices in insertion order. The slice is shared and
// must not be modified.
func (g *Graph) Vertices() []*Vertex {
	return g.vertices
}

// Edges returns all edges in creation order. The slice is shared and must not
// be modified.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Endpoints resolves an edge to its source and target vertices
func (g *Graph) Endpoints(e *Edge) (*Vertex, *Vertex) {
	return g.vertices[e.Source], g.vertices[e.Target]
}

// ConnectedEdges returns the edges incident on v in discovery order
func (g *Graph) ConnectedEdges(v *Vertex) []*Edge {
	result := make([]*Edge, 0, len(v.edges))
	for _, i := range v.edges {
		result = append(result, g.edges[i])
	}
	return result
}

// Neighbours returns the vertices connected to v in either direction,
// without duplicates, in discovery order. v itself is only included for
// self-loops.
func (g *Graph) Neighbours(v *Vertex) []*Vertex {
	self := g.index[v.ID]
	seen := make(map[int]bool, len(v.edges))
	var result []*Vertex
	for _, i := range v.edges {
		e := g.edges[i]
		other := e.Target
		if other == self {
			other = e.Source
		}
		if !seen[other] {
			seen[other] = true
			result = append(result, g.vertices[other])
		}
	}
	return result
}

// ComponentOrigins returns one anchor vertex per connected component
func (g *Graph) ComponentOrigins() []*Vertex {
	return g.origins
}

// SelectedVertex returns the vertex currently held by the user, or nil
func (g *Graph) SelectedVertex() *Vertex {
	return g.selected
}

// LastClickedVertex returns the most recently selected vertex, or nil.
// It survives deselection.
func (g *Graph) LastClickedVertex() *Vertex {
	return g.lastSelected
}

// Len returns the number of vertices
func (g *Graph) Len() int {
	return len(g.vertices)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

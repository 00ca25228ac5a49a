package models

// AddVertex inserts a vertex at the default position. It is a no-op returning
// the existing vertex and false when the id is already present.
func (g *Graph) AddVertex(id, label, vertexType, image string) (*Vertex, bool) {
	if i, ok := g.index[id]; ok {
		return g.vertices[i], false
	}
	v := &Vertex{
		ID:    id,
		Label: label,
		Type:  vertexType,
		Image: image,
		Pos:   DefaultPosition,
	}
	g.index[id] = len(g.vertices)
	g.vertices = append(g.vertices, v)
	return v, true
}

// AddEdge records the relation sourceID -[label]-> targetID. It returns true
// only when a new Edge was allocated. A repeated label is a no-op, and a new
// label for an existing ordered pair is appended to that edge's Types.
func (g *Graph) AddEdge(sourceID, targetID, label string) (bool, error) {
	src, ok := g.index[sourceID]
	if !ok {
		return false, &ReferenceError{ID: sourceID, Role: "source"}
	}
	tgt, ok := g.index[targetID]
	if !ok {
		return false, &ReferenceError{ID: targetID, Role: "target"}
	}

	if i, ok := g.pairs[pair{src, tgt}]; ok {
		existing := g.edges[i]
		if !existing.HasType(label) {
			existing.Types = append(existing.Types, label)
		}
		return false, nil
	}

	edge := &Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Source:   src,
		Target:   tgt,
		Types:    []string{label},
	}
	if i, ok := g.pairs[pair{tgt, src}]; ok {
		g.edges[i].Bidirectional = true
		edge.Bidirectional = true
	}

	idx := len(g.edges)
	g.edges = append(g.edges, edge)
	g.pairs[pair{src, tgt}] = idx
	g.vertices[src].edges = append(g.vertices[src].edges, idx)
	if tgt != src {
		g.vertices[tgt].edges = append(g.vertices[tgt].edges, idx)
	}
	return true, nil
}

// SetSelectedVertex marks v as held by the user and stops its movement
func (g *Graph) SetSelectedVertex(v *Vertex) {
	if g.selected != nil && g.selected != v {
		g.selected.selected = false
	}
	v.KillVelocity()
	v.selected = true
	g.selected = v
	g.lastSelected = v
}

// ResetSelectedVertex releases the selected vertex, if any
func (g *Graph) ResetSelectedVertex() {
	if g.selected == nil {
		return
	}
	g.selected.selected = false
	g.selected = nil
}

// SetComponentOrigins replaces the per-component anchor vertices
func (g *Graph) SetComponentOrigins(origins []*Vertex) {
	g.origins = append(g.origins[:0:0], origins...)
}

// Clear drops every vertex, edge, origin and selection
func (g *Graph) Clear() {
	g.vertices = nil
	g.index = make(map[string]int)
	g.edges = nil
	g.pairs = make(map[pair]int)
	g.origins = nil
	g.selected = nil
	g.lastSelected = nil
}

package models

// VertexView is a serialisable copy of a vertex
type VertexView struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Type      string  `json:"type,omitempty"`
	Image     string  `json:"image,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Colour    string  `json:"colour,omitempty"`
	Degree    int     `json:"degree"`
	Selected  bool    `json:"selected,omitempty"`
	Expanding bool    `json:"expanding,omitempty"`
}

// EdgeView is a serialisable copy of an edge
type EdgeView struct {
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	Types         []string `json:"types"`
	Bidirectional bool     `json:"bidirectional,omitempty"`
	Colour        string   `json:"colour,omitempty"`
}

// Snapshot is a point-in-time copy of a graph that shares no state with it
type Snapshot struct {
	Vertices []VertexView `json:"vertices"`
	Edges    []EdgeView   `json:"edges"`
	Origins  []string     `json:"origins"`
	Selected string       `json:"selected,omitempty"`
}

// Snapshot copies the graph's current state
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Vertices: make([]VertexView, 0, len(g.vertices)),
		Edges:    make([]EdgeView, 0, len(g.edges)),
		Origins:  make([]string, 0, len(g.origins)),
	}
	for _, v := range g.vertices {
		s.Vertices = append(s.Vertices, VertexView{
			ID:        v.ID,
			Label:     v.Label,
			Type:      v.Type,
			Image:     v.Image,
			X:         v.Pos.X,
			Y:         v.Pos.Y,
			Colour:    v.Colour,
			Degree:    v.Degree(),
			Selected:  v.selected,
			Expanding: v.expanding,
		})
	}
	for _, e := range g.edges {
		s.Edges = append(s.Edges, EdgeView{
			Source:        e.SourceID,
			Target:        e.TargetID,
			Types:         append([]string(nil), e.Types...),
			Bidirectional: e.Bidirectional,
			Colour:        e.Colour,
		})
	}
	for _, o := range g.origins {
		s.Origins = append(s.Origins, o.ID)
	}
	if g.selected != nil {
		s.Selected = g.selected.ID
	}
	return s
}

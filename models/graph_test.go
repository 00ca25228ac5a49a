package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range ids {
		_, created := g.AddVertex(id, "label-"+id, "thing", "")
		require.True(t, created)
	}
	return g
}

func TestAddVertex(t *testing.T) {
	g := NewGraph()

	v, created := g.AddVertex("Q1", "Universe", "concept", "")
	require.True(t, created)
	assert.Equal(t, DefaultPosition, v.Pos)
	assert.Equal(t, 0, v.Degree())

	again, created := g.AddVertex("Q1", "Something else", "other", "")
	assert.False(t, created)
	assert.Same(t, v, again)
	assert.Equal(t, "Universe", again.Label)
	assert.Equal(t, 1, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("identical triple is idempotent", func(t *testing.T) {
		g := newTestGraph(t, "A", "B")

		created, err := g.AddEdge("A", "B", "friend")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = g.AddEdge("A", "B", "friend")
		require.NoError(t, err)
		assert.False(t, created)

		require.Len(t, g.Edges(), 1)
		assert.Equal(t, []string{"friend"}, g.Edges()[0].Types)
	})

	t.Run("second label is merged", func(t *testing.T) {
		g := newTestGraph(t, "A", "B")

		_, err := g.AddEdge("A", "B", "friend")
		require.NoError(t, err)
		created, err := g.AddEdge("A", "B", "colleague")
		require.NoError(t, err)
		assert.False(t, created)

		require.Len(t, g.Edges(), 1)
		e := g.Edges()[0]
		assert.Equal(t, []string{"friend", "colleague"}, e.Types)
		assert.Equal(t, "friend", e.MainType())
		assert.Equal(t, "friend, colleague", e.Label(", "))

		a, _ := g.Vertex("A")
		assert.Equal(t, 1, a.Degree())
	})

	t.Run("reverse direction flags both edges", func(t *testing.T) {
		g := newTestGraph(t, "A", "B")

		_, err := g.AddEdge("A", "B", "friend")
		require.NoError(t, err)
		assert.False(t, g.Edges()[0].Bidirectional)

		created, err := g.AddEdge("B", "A", "friend")
		require.NoError(t, err)
		assert.True(t, created)

		require.Len(t, g.Edges(), 2)
		assert.True(t, g.Edges()[0].Bidirectional)
		assert.True(t, g.Edges()[1].Bidirectional)
	})

	t.Run("unknown endpoint fails loudly", func(t *testing.T) {
		g := newTestGraph(t, "A")

		_, err := g.AddEdge("A", "missing", "friend")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidReference))

		var refErr *ReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.Equal(t, "missing", refErr.ID)
		assert.Equal(t, "target", refErr.Role)

		_, err = g.AddEdge("missing", "A", "friend")
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "source", refErr.Role)

		assert.Empty(t, g.Edges())
		a, _ := g.Vertex("A")
		assert.Equal(t, 0, a.Degree())
	})

	t.Run("edges register on both endpoints", func(t *testing.T) {
		g := newTestGraph(t, "A", "B", "C")

		_, err := g.AddEdge("A", "B", "friend")
		require.NoError(t, err)
		_, err = g.AddEdge("B", "C", "friend")
		require.NoError(t, err)

		b, _ := g.Vertex("B")
		assert.Equal(t, 2, b.Degree())
		assert.Equal(t, 2.0, b.Mass())

		src, tgt := g.Endpoints(g.Edges()[1])
		assert.Equal(t, "B", src.ID)
		assert.Equal(t, "C", tgt.ID)
	})
}

func TestNeighbours(t *testing.T) {
	g := newTestGraph(t, "A", "B", "C")
	_, _ = g.AddEdge("A", "B", "x")
	_, _ = g.AddEdge("B", "A", "y")
	_, _ = g.AddEdge("C", "A", "z")

	a, _ := g.Vertex("A")
	ids := []string{}
	for _, n := range g.Neighbours(a) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"B", "C"}, ids)
	assert.Len(t, g.ConnectedEdges(a), 3)
}

func TestMassGuard(t *testing.T) {
	g := newTestGraph(t, "lonely")
	v, _ := g.Vertex("lonely")
	assert.Equal(t, 1.0, v.Mass())
}

func TestSelection(t *testing.T) {
	g := newTestGraph(t, "A", "B")
	a, _ := g.Vertex("A")
	b, _ := g.Vertex("B")
	a.Velocity = Vec{X: 3, Y: -4}

	g.SetSelectedVertex(a)
	assert.True(t, a.Selected())
	assert.Equal(t, Vec{}, a.Velocity)
	assert.Same(t, a, g.SelectedVertex())
	assert.Same(t, a, g.LastClickedVertex())

	g.SetSelectedVertex(b)
	assert.False(t, a.Selected())
	assert.True(t, b.Selected())

	g.ResetSelectedVertex()
	assert.False(t, b.Selected())
	assert.Nil(t, g.SelectedVertex())
	assert.Same(t, b, g.LastClickedVertex())

	// no-op when nothing is selected
	g.ResetSelectedVertex()
	assert.Nil(t, g.SelectedVertex())
}

func TestClear(t *testing.T) {
	g := newTestGraph(t, "A", "B")
	_, _ = g.AddEdge("A", "B", "friend")
	a, _ := g.Vertex("A")
	g.SetComponentOrigins([]*Vertex{a})
	g.SetSelectedVertex(a)

	g.Clear()

	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.ComponentOrigins())
	assert.Nil(t, g.SelectedVertex())
	assert.Nil(t, g.LastClickedVertex())
	_, ok := g.Vertex("A")
	assert.False(t, ok)

	// the graph is reusable after clearing
	g.AddVertex("A", "A", "", "")
	g.AddVertex("B", "B", "", "")
	created, err := g.AddEdge("A", "B", "friend")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestVec(t *testing.T) {
	v := Vec{X: 3, Y: 4}
	assert.Equal(t, 5.0, v.Len())
	assert.Equal(t, Vec{X: 4, Y: 6}, v.Add(Vec{X: 1, Y: 2}))
	assert.Equal(t, Vec{X: 2, Y: 2}, v.Sub(Vec{X: 1, Y: 2}))
	assert.Equal(t, Vec{X: 6, Y: 8}, v.Scale(2))
	assert.Equal(t, Vec{}, v.Div(0))
	assert.Equal(t, Vec{X: 3, Y: -2}, Vec{X: 3, Y: -30}.Clamp(2).Add(Vec{X: 1}))
	assert.InDelta(t, 5.0, Vec{}.Dist(v), 1e-9)
	assert.True(t, v.IsFinite())
}

package physics

import (
	"testing"

	"github.com/TFMV/fdgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDims float64

func (f fixedDims) HalfWidth(*models.Vertex) float64 { return float64(f) }

func vertexAt(g *models.Graph, id string, x, y float64) *models.Vertex {
	v, _ := g.AddVertex(id, id, "", "")
	v.Pos = models.Vec{X: x, Y: y}
	return v
}

func TestRepelAntisymmetric(t *testing.T) {
	cases := []struct {
		name       string
		degreeA    int
		degreeB    int
		posA, posB models.Vec
	}{
		{"equal mass", 1, 1, models.Vec{X: 0, Y: 0}, models.Vec{X: 30, Y: 40}},
		{"hub and leaf", 4, 1, models.Vec{X: 10, Y: -5}, models.Vec{X: -20, Y: 7}},
		{"isolated pair", 0, 0, models.Vec{X: 1, Y: 1}, models.Vec{X: 2, Y: 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := models.NewGraph()
			a := vertexAt(g, "A", tc.posA.X, tc.posA.Y)
			b := vertexAt(g, "B", tc.posB.X, tc.posB.Y)
			for i := 0; i < tc.degreeA; i++ {
				id := "a" + string(rune('0'+i))
				vertexAt(g, id, 500, 500)
				_, err := g.AddEdge("A", id, "r")
				require.NoError(t, err)
			}
			for i := 0; i < tc.degreeB; i++ {
				id := "b" + string(rune('0'+i))
				vertexAt(g, id, 500, 500)
				_, err := g.AddEdge("B", id, "r")
				require.NoError(t, err)
			}

			s := NewSimulator(DefaultParams(), fixedDims(5), 1)
			require.True(t, s.Repel(a, b))

			momentumA := a.Velocity.Scale(a.Mass())
			momentumB := b.Velocity.Scale(b.Mass())
			assert.InDelta(t, 0, momentumA.X+momentumB.X, 1e-9)
			assert.InDelta(t, 0, momentumA.Y+momentumB.Y, 1e-9)

			// A moves away from B
			away := a.Pos.Sub(b.Pos)
			assert.Greater(t, a.Velocity.X*away.X+a.Velocity.Y*away.Y, 0.0)
		})
	}
}

func TestRepelMagnitude(t *testing.T) {
	g := models.NewGraph()
	a := vertexAt(g, "A", 0, 0)
	b := vertexAt(g, "B", 100, 0)

	params := DefaultParams()
	s := NewSimulator(params, fixedDims(20), 1)
	s.Repel(a, b)

	// effective distance 100 - 40 = 60
	assert.InDelta(t, -params.Repulsion/60, a.Velocity.X, 1e-9)
	assert.InDelta(t, params.Repulsion/60, b.Velocity.X, 1e-9)

	// overlapping boxes fall back to MinSeparation
	c := vertexAt(g, "C", 0, 0)
	d := vertexAt(g, "D", 10, 0)
	s.Repel(c, d)
	assert.InDelta(t, -params.Repulsion/params.MinSeparation, c.Velocity.X, 1e-9)
}

func TestCoincidentVertices(t *testing.T) {
	g := models.NewGraph()
	a := vertexAt(g, "A", 50, 50)
	b := vertexAt(g, "B", 50, 50)
	_, err := g.AddEdge("A", "B", "r")
	require.NoError(t, err)

	s := NewSimulator(DefaultParams(), fixedDims(10), 7)
	assert.False(t, s.Repel(a, b))

	for i := 0; i < 50; i++ {
		s.Step(g, models.Vec{X: 50, Y: 50})
	}
	assert.True(t, a.Pos.IsFinite())
	assert.True(t, b.Pos.IsFinite())
	assert.True(t, a.Velocity.IsFinite())
	assert.Greater(t, a.Pos.Dist(b.Pos), 0.0)
}

func TestCoincidentWithoutJitter(t *testing.T) {
	g := models.NewGraph()
	a := vertexAt(g, "A", 50, 50)
	b := vertexAt(g, "B", 50, 50)

	params := DefaultParams()
	params.Jitter = 0
	s := NewSimulator(params, nil, 7)
	s.Step(g, models.Vec{X: 50, Y: 50})

	assert.Equal(t, models.Vec{X: 50, Y: 50}, a.Pos)
	assert.Equal(t, models.Vec{X: 50, Y: 50}, b.Pos)
}

func TestAttract(t *testing.T) {
	params := DefaultParams()

	t.Run("stretched spring pulls together", func(t *testing.T) {
		g := models.NewGraph()
		a := vertexAt(g, "A", 0, 0)
		b := vertexAt(g, "B", 200, 0)
		_, _ = g.AddEdge("A", "B", "r")

		s := NewSimulator(params, nil, 1)
		s.Attract(a, b)
		assert.InDelta(t, params.Spring*(200-params.RestLength), a.Velocity.X, 1e-9)
		assert.InDelta(t, -params.Spring*(200-params.RestLength), b.Velocity.X, 1e-9)
	})

	t.Run("compressed spring pushes apart", func(t *testing.T) {
		g := models.NewGraph()
		a := vertexAt(g, "A", 0, 0)
		b := vertexAt(g, "B", 10, 0)
		_, _ = g.AddEdge("A", "B", "r")

		s := NewSimulator(params, fixedDims(15), 1)
		s.Attract(a, b)
		assert.Less(t, a.Velocity.X, 0.0)
		assert.Greater(t, b.Velocity.X, 0.0)
	})

	t.Run("selected endpoint exempt", func(t *testing.T) {
		g := models.NewGraph()
		a := vertexAt(g, "A", 0, 0)
		b := vertexAt(g, "B", 200, 0)
		_, _ = g.AddEdge("A", "B", "r")
		g.SetSelectedVertex(a)

		s := NewSimulator(params, nil, 1)
		s.Attract(a, b)
		assert.Equal(t, models.Vec{}, a.Velocity)
		assert.NotEqual(t, models.Vec{}, b.Velocity)
	})
}

func TestCentre(t *testing.T) {
	g := models.NewGraph()
	origin := vertexAt(g, "A", 100, 0)
	params := DefaultParams()
	s := NewSimulator(params, nil, 1)

	s.Centre(origin, models.Vec{})
	assert.InDelta(t, -100*params.CentralSpring, origin.Velocity.X, 1e-9)

	g.SetSelectedVertex(origin)
	s.Centre(origin, models.Vec{})
	assert.Equal(t, models.Vec{}, origin.Velocity)
}

func TestDampingConvergence(t *testing.T) {
	g := models.NewGraph()
	v := vertexAt(g, "A", 0, 0)
	v.Velocity = models.Vec{X: 350, Y: -120}

	s := NewSimulator(DefaultParams(), nil, 1)
	prev := v.Velocity.Len()
	for i := 0; i < 200; i++ {
		s.Integrate(v)
		speed := v.Velocity.Len()
		assert.Less(t, speed, prev)
		prev = speed
	}
	assert.InDelta(t, 0, prev, 1e-6)
}

func TestIntegrateClampsSpeed(t *testing.T) {
	g := models.NewGraph()
	v := vertexAt(g, "A", 0, 0)
	v.Velocity = models.Vec{X: 1000, Y: -3}

	params := DefaultParams()
	s := NewSimulator(params, nil, 1)
	s.Integrate(v)

	assert.Equal(t, models.Vec{X: params.MaxSpeed, Y: -3}, v.Pos)
	assert.InDelta(t, 1000*params.Damping, v.Velocity.X, 1e-9)
}

func TestSelectedVertexImmune(t *testing.T) {
	g := models.NewGraph()
	held := vertexAt(g, "held", 10, 10)
	vertexAt(g, "B", 12, 10)
	vertexAt(g, "C", 10, 14)
	_, _ = g.AddEdge("held", "B", "r")
	_, _ = g.AddEdge("C", "held", "r")
	g.SetComponentOrigins([]*models.Vertex{held})
	g.SetSelectedVertex(held)

	s := NewSimulator(DefaultParams(), fixedDims(30), 3)
	for i := 0; i < 25; i++ {
		s.Step(g, models.Vec{X: 400, Y: 300})
	}
	assert.Equal(t, models.Vec{X: 10, Y: 10}, held.Pos)
	assert.Equal(t, models.Vec{}, held.Velocity)
}

func TestStepSettles(t *testing.T) {
	g := models.NewGraph()
	vertexAt(g, "A", 380, 300)
	vertexAt(g, "B", 420, 300)
	vertexAt(g, "C", 400, 340)
	_, _ = g.AddEdge("A", "B", "r")
	_, _ = g.AddEdge("B", "C", "r")
	a, _ := g.Vertex("A")
	g.SetComponentOrigins([]*models.Vertex{a})

	s := NewSimulator(DefaultParams(), fixedDims(20), 1)
	stable := false
	for i := 0; i < 5000 && !stable; i++ {
		stable = s.Step(g, models.Vec{X: 400, Y: 300})
	}
	assert.True(t, stable)
	for _, v := range g.Vertices() {
		assert.True(t, v.Pos.IsFinite())
	}
}

func TestStepEmptyGraph(t *testing.T) {
	s := NewSimulator(DefaultParams(), nil, 1)
	assert.True(t, s.Step(models.NewGraph(), models.Vec{}))
	assert.Equal(t, uint64(1), s.Ticks())
}

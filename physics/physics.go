// Package physics advances the force-directed layout one tick at a time.
// Each tick accumulates pairwise repulsion, spring attraction along edges and
// a centering pull on component origins into vertex velocities, then
// integrates velocity into position with clamping and damping.
package physics

import (
	"math"

	"github.com/TFMV/fdgraph/models"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Params holds the tunable force constants
type Params struct {
	Repulsion     float64 // repulsion strength
	Exponent      float64 // distance exponent of the repulsion falloff
	MinSeparation float64 // floor for the box-to-box distance
	Spring        float64 // edge spring stiffness
	CentralSpring float64 // pull of component origins toward the centre
	RestLength    float64 // spring rest length between box borders
	Damping       float64 // velocity multiplier per tick, < 1
	MaxSpeed      float64 // per-axis displacement limit per tick
	Jitter        float64 // nudge applied to coincident vertices, 0 disables
	StableSpeed   float64 // mean speed under which a tick reports stable
}

// DefaultParams returns the stock force constants
func DefaultParams() Params {
	return Params{
		Repulsion:     800,
		Exponent:      1,
		MinSeparation: 2,
		Spring:        0.025,
		CentralSpring: 0.075,
		RestLength:    50,
		Damping:       0.9,
		MaxSpeed:      20,
		Jitter:        0.5,
		StableSpeed:   0.05,
	}
}

// Dimensions reports the half width of a vertex's drawn box
type Dimensions interface {
	HalfWidth(v *models.Vertex) float64
}

// ZeroDimensions treats every vertex as a point
type ZeroDimensions struct{}

// HalfWidth always returns zero
func (ZeroDimensions) HalfWidth(*models.Vertex) float64 { return 0 }

// Simulator runs force-directed layout steps over a live graph
type Simulator struct {
	params Params
	dims   Dimensions
	noise  opensimplex.Noise
	tick   uint64
}

// NewSimulator creates a simulator. A nil dims treats vertices as points.
func NewSimulator(params Params, dims Dimensions, seed int64) *Simulator {
	if dims == nil {
		dims = ZeroDimensions{}
	}
	return &Simulator{
		params: params,
		dims:   dims,
		noise:  opensimplex.New(seed),
	}
}

// Params returns the simulator's force constants
func (s *Simulator) Params() Params {
	return s.params
}

// Ticks returns how many steps have run
func (s *Simulator) Ticks() uint64 {
	return s.tick
}

// Step performs one tick over the graph's current contents. It returns true
// when the mean vertex speed has dropped under StableSpeed.
func (s *Simulator) Step(g *models.Graph, center models.Vec) bool {
	vertices := g.Vertices()
	for i := 0; i < len(vertices); i++ {
		for j := i + 1; j < len(vertices); j++ {
			if !s.Repel(vertices[i], vertices[j]) {
				s.nudge(vertices[i], vertices[j], i, j)
			}
		}
	}

	for _, e := range g.Edges() {
		a, b := g.Endpoints(e)
		s.Attract(a, b)
	}

	for _, origin := range g.ComponentOrigins() {
		s.Centre(origin, center)
	}

	totalSpeed := 0.0
	for _, v := range vertices {
		s.Integrate(v)
		totalSpeed += v.Velocity.Len()
	}
	s.tick++

	if len(vertices) == 0 {
		return true
	}
	return totalSpeed/float64(len(vertices)) < s.params.StableSpeed
}

// Repel pushes a and b apart. It returns false without applying anything when
// the two centres coincide.
func (s *Simulator) Repel(a, b *models.Vertex) bool {
	delta := a.Pos.Sub(b.Pos)
	d := delta.Len()
	if d == 0 {
		return false
	}

	offset := s.dims.HalfWidth(a) + s.dims.HalfWidth(b)
	effective := math.Max(d-offset, s.params.MinSeparation)
	force := s.params.Repulsion / math.Pow(effective, s.params.Exponent)
	unit := delta.Div(d)

	if !a.Selected() {
		a.Velocity = a.Velocity.Add(unit.Scale(force / a.Mass()))
	}
	if !b.Selected() {
		b.Velocity = b.Velocity.Sub(unit.Scale(force / b.Mass()))
	}
	return true
}

// Attract applies the spring along the edge a -> b. Stretched springs pull
// the endpoints together, compressed ones push them apart.
func (s *Simulator) Attract(a, b *models.Vertex) {
	delta := b.Pos.Sub(a.Pos)
	d := delta.Len()
	if d == 0 {
		return
	}

	rest := s.params.RestLength + s.dims.HalfWidth(a) + s.dims.HalfWidth(b)
	force := s.params.Spring * (d - rest)
	unit := delta.Div(d)

	if !a.Selected() {
		a.Velocity = a.Velocity.Add(unit.Scale(force / a.Mass()))
	}
	if !b.Selected() {
		b.Velocity = b.Velocity.Sub(unit.Scale(force / b.Mass()))
	}
}

// Centre pulls a component origin toward center
func (s *Simulator) Centre(origin *models.Vertex, center models.Vec) {
	if origin.Selected() {
		return
	}
	origin.Velocity = origin.Velocity.Add(center.Sub(origin.Pos).Scale(s.params.CentralSpring))
}

// Integrate moves v by its clamped velocity and damps the velocity.
// Selected vertices are left alone.
func (s *Simulator) Integrate(v *models.Vertex) {
	if v.Selected() {
		return
	}
	v.Pos = v.Pos.Add(v.Velocity.Clamp(s.params.MaxSpeed))
	v.Velocity = v.Velocity.Scale(s.params.Damping)
}

// nudge separates two coincident vertices with a small noise-driven push so
// they have a direction to repel along on the next tick
func (s *Simulator) nudge(a, b *models.Vertex, i, j int) {
	if s.params.Jitter <= 0 {
		return
	}
	target := b
	if target.Selected() {
		target = a
	}
	if target.Selected() {
		return
	}
	angle := math.Pi * s.noise.Eval3(float64(i)*0.37, float64(j)*0.37, float64(s.tick)*0.01)
	push := models.Vec{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(s.params.Jitter)
	target.Velocity = target.Velocity.Add(push)
}

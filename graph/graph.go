// Package graph wraps the entity graph in a Manager that serialises every
// mutation. Physics ticks, merges and pointer input all take the same lock, so
// a tick never observes a half-merged batch.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/TFMV/fdgraph/ingest"
	"github.com/TFMV/fdgraph/layout"
	"github.com/TFMV/fdgraph/models"
	"github.com/TFMV/fdgraph/physics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMinEntities is the smallest batch Load will lay out
const DefaultMinEntities = 2

// Config wires a Manager's collaborators. Zero fields get defaults.
type Config struct {
	Simulator   *physics.Simulator
	Initializer *layout.Initializer
	Colours     *ingest.ColorAssigner
	Fetcher     ingest.Fetcher
	Logger      *zap.Logger
	MinEntities int
}

// Manager owns the live graph
type Manager struct {
	mu      sync.Mutex
	id      string
	graph   *models.Graph
	sim     *physics.Simulator
	init    *layout.Initializer
	colours *ingest.ColorAssigner
	fetcher ingest.Fetcher
	logger  *zap.Logger

	minEntities int
}

// NewManager creates a manager around an empty graph
func NewManager(cfg Config) *Manager {
	if cfg.Simulator == nil {
		cfg.Simulator = physics.NewSimulator(physics.DefaultParams(), nil, 0)
	}
	if cfg.Initializer == nil {
		cfg.Initializer = layout.NewInitializer(800, 600)
	}
	if cfg.Colours == nil {
		cfg.Colours = ingest.NewColorAssigner(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MinEntities <= 0 {
		cfg.MinEntities = DefaultMinEntities
	}
	return &Manager{
		id:          uuid.NewString(),
		graph:       models.NewGraph(),
		sim:         cfg.Simulator,
		init:        cfg.Initializer,
		colours:     cfg.Colours,
		fetcher:     cfg.Fetcher,
		logger:      cfg.Logger,
		minEntities: cfg.MinEntities,
	}
}

// ID returns the session id of this manager's graph
func (m *Manager) ID() string {
	return m.id
}

// Fetcher returns the configured fetcher, which may be nil
func (m *Manager) Fetcher() ingest.Fetcher {
	return m.fetcher
}

// Simulate runs one physics tick and reports whether the layout is stable
func (m *Manager) Simulate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Step(m.graph, m.init.Center)
}

// Load fetches the neighbourhood of entityID and merges it. Without
// appendMode the graph is replaced and laid out from scratch, otherwise only
// the new vertices are placed. On any error the graph is left untouched.
func (m *Manager) Load(ctx context.Context, entityID string, depth, relationLimit int, appendMode bool) (ingest.MergeResult, error) {
	if m.fetcher == nil {
		return ingest.MergeResult{}, fmt.Errorf("no fetcher configured")
	}

	resp, err := m.fetcher.FetchRelated(ctx, entityID, depth, relationLimit)
	if err != nil {
		return ingest.MergeResult{}, fmt.Errorf("error fetching %s: %w", entityID, err)
	}
	if resp.Len() < m.minEntities {
		m.logger.Warn("fetch returned too few entities",
			zap.String("entity", entityID),
			zap.Int("entities", resp.Len()),
			zap.Int("min", m.minEntities))
		return ingest.MergeResult{}, fmt.Errorf("%s returned %d entities: %w", entityID, resp.Len(), models.ErrInsufficientData)
	}

	return m.Apply(resp, appendMode, nil)
}

// Apply merges an already fetched response. Appended vertices are ringed
// around anchor, or around the existing vertices when anchor is nil.
func (m *Manager) Apply(resp *ingest.Response, appendMode bool, anchor *models.Vec) (ingest.MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !appendMode {
		m.graph.Clear()
		m.colours.Reset()
	}

	result, err := ingest.Merge(m.graph, resp)
	if err != nil {
		return result, err
	}

	if appendMode {
		m.init.AppendPositions(m.graph, result.NewVertices, anchor)
		m.init.UpdateComponents(m.graph)
	} else {
		m.init.InitPositions(m.graph)
	}
	m.colours.Assign(m.graph)

	m.logger.Debug("merged response",
		zap.Bool("append", appendMode),
		zap.Int("new_vertices", len(result.NewVertices)),
		zap.Int("edges_created", result.EdgesCreated),
		zap.Int("labels_merged", result.LabelsMerged),
		zap.Int("vertices", m.graph.Len()),
		zap.Int("edges", m.graph.EdgeCount()))
	return result, nil
}

// Select holds the vertex in place until ResetSelection
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.graph.Vertex(id)
	if !ok {
		return fmt.Errorf("select %s: %w", id, models.ErrVertexNotFound)
	}
	m.graph.SetSelectedVertex(v)
	return nil
}

// ResetSelection releases the held vertex
func (m *Manager) ResetSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph.ResetSelectedVertex()
}

// Drag moves the selected vertex to pos. It reports false when nothing is
// selected.
func (m *Manager) Drag(pos models.Vec) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.graph.SelectedVertex()
	if v == nil {
		return false
	}
	v.Pos = pos
	v.KillVelocity()
	return true
}

// Clear empties the graph
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph.Clear()
	m.colours.Reset()
}

// IsEmpty reports whether the graph holds no vertices
func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Len() == 0
}

// Stats returns the vertex and edge counts
func (m *Manager) Stats() (vertices, edges int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Len(), m.graph.EdgeCount()
}

// View runs fn with the lock held. fn must not retain g.
func (m *Manager) View(fn func(g *models.Graph)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.graph)
}

// Snapshot returns a copy of the graph's current state
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Snapshot()
}

// Frontier returns the ids within depth hops of id, id first
func (m *Manager) Frontier(id string, depth int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.graph.Vertex(id)
	if !ok {
		return nil, fmt.Errorf("frontier of %s: %w", id, models.ErrVertexNotFound)
	}
	return layout.Frontier(m.graph, v, depth), nil
}

// Degree returns the vertex's edge count, or -1 when it is absent
func (m *Manager) Degree(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.graph.Vertex(id)
	if !ok {
		return -1
	}
	return v.Degree()
}

// Position returns the vertex's current position
func (m *Manager) Position(id string) (models.Vec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.graph.Vertex(id)
	if !ok {
		return models.Vec{}, false
	}
	return v.Pos, true
}

// BeginExpanding flags the vertex as the target of an in-flight expansion.
// It returns false when the vertex is absent or already flagged.
func (m *Manager) BeginExpanding(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.graph.Vertex(id)
	if !ok || v.Expanding() {
		return false
	}
	v.SetExpanding(true)
	return true
}

// EndExpanding clears the in-flight flag
func (m *Manager) EndExpanding(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.graph.Vertex(id); ok {
		v.SetExpanding(false)
	}
}

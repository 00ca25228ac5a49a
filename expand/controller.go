// Package expand grows the graph outward from a vertex in bounded steps.
//
// An expansion walks the breadth-first frontier of its target and, for each
// frontier vertex, keeps asking the fetcher for a larger relation limit until
// the vertex reaches the requested degree or stops gaining edges. Only one
// expansion runs at a time; a second request is rejected rather than queued.
package expand

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/TFMV/fdgraph/graph"
	"github.com/TFMV/fdgraph/ingest"
	"github.com/TFMV/fdgraph/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the outcome of an expansion request
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

var errCancelled = errors.New("expansion cancelled")

// Options bounds a single expansion
type Options struct {
	MaxStalls        int // consecutive no-progress fetches before giving up on a vertex
	LimitStep        int // relation limit increase per attempt
	FetchDepth       int // depth passed to the fetcher
	MaxRelationLimit int // ceiling for the requested relation limit
}

// DefaultOptions returns the stock expansion bounds
func DefaultOptions() Options {
	return Options{
		MaxStalls:        3,
		LimitStep:        5,
		FetchDepth:       1,
		MaxRelationLimit: 50,
	}
}

// Result describes a finished expansion
type Result struct {
	ID          string   `json:"id"`
	Status      Status   `json:"status"`
	Target      string   `json:"target"`
	Expanded    []string `json:"expanded"`
	NewVertices int      `json:"new_vertices"`
	EdgesAdded  int      `json:"edges_added"`
	Attempts    int      `json:"attempts"`
	Error       string   `json:"error,omitempty"`
}

// Controller runs expansions against a Manager
type Controller struct {
	manager *graph.Manager
	fetcher ingest.Fetcher
	logger  *zap.Logger
	metrics *metrics.Collector
	opts    Options

	active    atomic.Bool
	cancelled atomic.Bool

	mu   sync.Mutex
	last *Result
}

// NewController creates a controller. Zero option fields take defaults.
func NewController(manager *graph.Manager, fetcher ingest.Fetcher, logger *zap.Logger, collector *metrics.Collector, opts Options) *Controller {
	defaults := DefaultOptions()
	if opts.MaxStalls <= 0 {
		opts.MaxStalls = defaults.MaxStalls
	}
	if opts.LimitStep <= 0 {
		opts.LimitStep = defaults.LimitStep
	}
	if opts.FetchDepth <= 0 {
		opts.FetchDepth = defaults.FetchDepth
	}
	if opts.MaxRelationLimit <= 0 {
		opts.MaxRelationLimit = defaults.MaxRelationLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		manager: manager,
		fetcher: fetcher,
		logger:  logger,
		metrics: collector,
		opts:    opts,
	}
}

// Active reports whether an expansion is in flight
func (c *Controller) Active() bool {
	return c.active.Load()
}

// Cancel asks the running expansion to stop at its next check. Work already
// merged stays in the graph.
func (c *Controller) Cancel() {
	if c.active.Load() {
		c.cancelled.Store(true)
	}
}

// Expand grows the neighbourhood of targetID up to depth hops, trying to give
// each frontier vertex at least goal edges. A request made while another is
// running returns StatusRejected and no error.
func (c *Controller) Expand(ctx context.Context, targetID string, depth, goal int) (Result, error) {
	result := newResult(targetID)
	if !c.acquire(result) {
		result.Status = StatusRejected
		return result, nil
	}
	return c.execute(ctx, result, depth, goal)
}

// Start runs an expansion in the background. It returns false, with a
// rejected result, when another expansion holds the controller. The finished
// result is available from Last.
func (c *Controller) Start(ctx context.Context, targetID string, depth, goal int) (Result, bool) {
	result := newResult(targetID)
	if !c.acquire(result) {
		result.Status = StatusRejected
		return result, false
	}
	go func() {
		_, _ = c.execute(ctx, result, depth, goal)
	}()
	return result, true
}

// Last returns the most recently finished expansion
func (c *Controller) Last() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

func newResult(targetID string) Result {
	return Result{
		ID:     uuid.NewString(),
		Status: StatusCompleted,
		Target: targetID,
	}
}

func (c *Controller) acquire(result Result) bool {
	if c.active.CompareAndSwap(false, true) {
		c.cancelled.Store(false)
		return true
	}
	c.logger.Info("expansion rejected, another is in flight",
		zap.String("expansion", result.ID),
		zap.String("target", result.Target))
	c.metrics.ObserveExpansion(string(StatusRejected))
	return false
}

func (c *Controller) execute(ctx context.Context, result Result, depth, goal int) (Result, error) {
	defer c.active.Store(false)
	logger := c.logger.With(zap.String("expansion", result.ID), zap.String("target", result.Target))

	err := c.run(ctx, result.Target, depth, goal, &result, logger)
	switch {
	case errors.Is(err, errCancelled):
		result.Status = StatusCancelled
		err = nil
	case err != nil:
		result.Status = StatusFailed
		result.Error = err.Error()
	}

	c.mu.Lock()
	c.last = &result
	c.mu.Unlock()

	c.metrics.ObserveExpansion(string(result.Status))
	logger.Info("expansion finished",
		zap.String("status", string(result.Status)),
		zap.Int("expanded", len(result.Expanded)),
		zap.Int("new_vertices", result.NewVertices),
		zap.Int("edges_added", result.EdgesAdded),
		zap.Int("attempts", result.Attempts))
	return result, err
}

func (c *Controller) run(ctx context.Context, targetID string, depth, goal int, result *Result, logger *zap.Logger) error {
	if c.fetcher == nil {
		return fmt.Errorf("no fetcher configured")
	}

	frontier, err := c.manager.Frontier(targetID, depth)
	if err != nil {
		return err
	}
	logger.Debug("expansion frontier", zap.Strings("frontier", frontier))

	for _, id := range frontier {
		if c.stopped(ctx) {
			return errCancelled
		}
		grown, err := c.grow(ctx, id, goal, result, logger)
		if err != nil {
			return err
		}
		if grown {
			result.Expanded = append(result.Expanded, id)
		}
	}
	return nil
}

// grow raises the degree of one vertex toward goal. It returns false when the
// vertex was skipped because it vanished or is already being expanded.
func (c *Controller) grow(ctx context.Context, id string, goal int, result *Result, logger *zap.Logger) (bool, error) {
	if !c.manager.BeginExpanding(id) {
		return false, nil
	}
	defer c.manager.EndExpanding(id)

	degree := c.manager.Degree(id)
	limit := degree
	stalls := 0
	for degree < goal && stalls < c.opts.MaxStalls {
		if c.stopped(ctx) {
			return false, errCancelled
		}

		limit = min(limit+c.opts.LimitStep, c.opts.MaxRelationLimit)
		resp, err := c.fetcher.FetchRelated(ctx, id, c.opts.FetchDepth, limit)
		result.Attempts++
		if c.stopped(ctx) {
			return false, errCancelled
		}
		if err != nil {
			c.metrics.ObserveFetchError()
			return false, fmt.Errorf("error fetching relations for %s: %w", id, err)
		}

		anchor, ok := c.manager.Position(id)
		if !ok {
			return false, nil
		}
		merged, err := c.manager.Apply(resp, true, &anchor)
		if err != nil {
			return false, err
		}
		result.NewVertices += len(merged.NewVertices)
		result.EdgesAdded += merged.EdgesCreated

		now := c.manager.Degree(id)
		if now <= degree {
			stalls++
		} else {
			stalls = 0
		}
		logger.Debug("expansion attempt",
			zap.String("vertex", id),
			zap.Int("relation_limit", limit),
			zap.Int("degree", now),
			zap.Int("stalls", stalls))
		degree = now
	}
	return true, nil
}

func (c *Controller) stopped(ctx context.Context) bool {
	return c.cancelled.Load() || ctx.Err() != nil
}

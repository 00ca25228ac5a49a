// Package fetch retrieves entity neighbourhoods from the entity service over
// HTTP. Calls go through a circuit breaker so a failing upstream does not
// stall every expansion attempt on its own timeout.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/fdgraph/ingest"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxBody caps how much of a response is read
const maxBody = 32 << 20

// ErrNoData is returned when the service answers without a data payload
var ErrNoData = errors.New("response has no data")

// StatusError reports a non-2xx answer from the entity service
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %s", e.Status)
}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32        // requests let through while half-open
	Interval         time.Duration // closed-state window for clearing counts
	Timeout          time.Duration // open-state duration before half-open
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // requests needed before the ratio is considered
}

// DefaultBreakerConfig returns the stock breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Config configures a Client
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// Client implements ingest.Fetcher against GET /api/graph/{id}
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a client for the service at cfg.BaseURL
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	bc := cfg.Breaker
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "entity-service",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isSuccessful,
	})

	return &Client{
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// FetchRelated returns the entities related to entityID
func (c *Client) FetchRelated(ctx context.Context, entityID string, depth, relationLimit int) (*ingest.Response, error) {
	endpoint := c.endpoint(entityID, depth, relationLimit)

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		c.logger.Debug("fetch failed", zap.String("entity", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch graph data for %s: %w", entityID, err)
	}
	return out.(*ingest.Response), nil
}

// State returns the breaker's current state
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) endpoint(entityID string, depth, relationLimit int) string {
	u := *c.base
	u.Path = c.base.Path + "/api/graph/" + url.PathEscape(entityID)
	q := url.Values{}
	q.Set("depth", strconv.Itoa(depth))
	q.Set("relation_limit", strconv.Itoa(relationLimit))
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, endpoint string) (*ingest.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var env ingest.Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if env.Data == nil {
		return nil, ErrNoData
	}
	return env.Data, nil
}

// isSuccessful keeps caller mistakes and cancellations from tripping the
// breaker. Only transport failures and 5xx answers count against upstream.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code < 500
	}
	return false
}

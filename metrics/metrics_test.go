package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollector(t *testing.T) {
	c := NewCollector("fdgraph")

	c.ObserveTick(3*time.Millisecond, 12, 20)
	c.ObserveTick(time.Millisecond, 13, 21)
	c.ObserveExpansion("completed")
	c.ObserveExpansion("rejected")
	c.ObserveExpansion("completed")
	c.ObserveFetchError()

	body := scrape(t, c)
	assert.Contains(t, body, "fdgraph_ticks_total 2")
	assert.Contains(t, body, "fdgraph_vertices 13")
	assert.Contains(t, body, "fdgraph_edges 21")
	assert.Contains(t, body, `fdgraph_expansions_total{status="completed"} 2`)
	assert.Contains(t, body, `fdgraph_expansions_total{status="rejected"} 1`)
	assert.Contains(t, body, "fdgraph_fetch_errors_total 1")
	assert.Contains(t, body, "fdgraph_tick_duration_seconds_count 2")
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveTick(time.Millisecond, 1, 1)
		c.ObserveExpansion("failed")
		c.ObserveFetchError()
	})
}

func TestSeparateRegistries(t *testing.T) {
	a := NewCollector("fdgraph")
	b := NewCollector("fdgraph")
	a.ObserveFetchError()

	assert.NotSame(t, a.GetRegistry(), b.GetRegistry())
	assert.Contains(t, scrape(t, b), "fdgraph_fetch_errors_total 0")
}

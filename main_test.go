package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TFMV/fdgraph/config"
	"github.com/TFMV/fdgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLayoutFileCSV(t *testing.T) {
	path := writeFile(t, "edges.csv", "source,target,label\nA,B,knows\nB,C,knows\nC,A,likes\nD,E,knows\n")

	result, err := layoutFile(context.Background(), config.Default(), path, layoutOptions{
		Format:     "json",
		Iterations: 50,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Vertices)
	assert.Equal(t, 4, result.Edges)
	assert.LessOrEqual(t, result.Iterations, 50)
	assert.Positive(t, result.Iterations)

	var doc struct {
		Vertices []models.VertexView `json:"vertices"`
		Origins  []string            `json:"origins"`
	}
	require.NoError(t, json.Unmarshal(result.Output, &doc))
	assert.Len(t, doc.Vertices, 5)
	assert.Len(t, doc.Origins, 2)
	for _, v := range doc.Vertices {
		assert.NotEmpty(t, v.Colour, v.ID)
	}
}

func TestLayoutFileJSONEnvelope(t *testing.T) {
	path := writeFile(t, "graph.json", `{
		"status": "ok",
		"data": {
			"entities": {"Q1": {"label": "Ada"}, "Q2": {"label": "Babbage"}},
			"properties": {"P1": "knew"},
			"relations": {"Q1": {"P1": ["Q2"]}}
		}
	}`)

	result, err := layoutFile(context.Background(), config.Default(), path, layoutOptions{
		Format:     "svg",
		Iterations: 10,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, string(result.Output), "Babbage")
	assert.Contains(t, string(result.Output), "knew")
}

func TestLayoutFileErrors(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name   string
		path   string
		format string
	}{
		{"unknown input", writeFile(t, "graph.xml", "<graph/>"), "svg"},
		{"unknown output", writeFile(t, "edges.csv", "source,target\nA,B\n"), "png"},
		{"missing file", filepath.Join(t.TempDir(), "absent.csv"), "svg"},
		{"empty input", writeFile(t, "empty.csv", "source,target\n"), "svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := layoutFile(context.Background(), cfg, tt.path, layoutOptions{Format: tt.format, Iterations: 1}, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestLayoutFileTimeoutKeepsPartialLayout(t *testing.T) {
	path := writeFile(t, "edges.csv", "source,target\nA,B\n")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	result, err := layoutFile(ctx, config.Default(), path, layoutOptions{Format: "dot", Iterations: 100}, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, result.Iterations)
	assert.Contains(t, string(result.Output), "digraph G {")
}

func TestLayoutFileCancelled(t *testing.T) {
	path := writeFile(t, "edges.csv", "source,target\nA,B\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := layoutFile(ctx, config.Default(), path, layoutOptions{Format: "dot", Iterations: 100}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "console"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = newLogger(config.LogConfig{Level: "warn", Format: "json"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestConfigCommand(t *testing.T) {
	cfgFile = ""
	t.Cleanup(func() { cfgFile = "" })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--config", writeFile(t, "fdgraph.yaml", "server:\n  addr: \":9999\"\n")})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "9999")
	assert.Contains(t, out.String(), "tick_interval: 16ms")
}

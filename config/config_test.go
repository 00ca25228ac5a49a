package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TFMV/fdgraph/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fdgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, physics.DefaultParams(), cfg.PhysicsParams())
	assert.Equal(t, 3, cfg.ExpandOptions().MaxStalls)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
canvas:
  width: 1920
physics:
  damping: 0.8
fetch:
  base_url: http://entities.local:9000
  timeout: 3s
server:
  tick_interval: 33ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920.0, cfg.Canvas.Width)
	assert.Equal(t, 600.0, cfg.Canvas.Height)
	assert.Equal(t, 0.8, cfg.Physics.Damping)
	assert.Equal(t, 800.0, cfg.Physics.Repulsion)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 33*time.Millisecond, cfg.Server.TickInterval)

	client := cfg.ClientConfig()
	assert.Equal(t, "http://entities.local:9000", client.BaseURL)
	assert.Equal(t, cfg.Fetch.Breaker.MinRequests, client.Breaker.MinRequests)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FDGRAPH_SERVER_ADDR", ":9191")
	t.Setenv("FDGRAPH_EXPANSION_MAX_STALLS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Expansion.MaxStalls)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"damping at one", "physics:\n  damping: 1\n", "Physics.Damping"},
		{"negative width", "canvas:\n  width: -5\n", "Canvas.Width"},
		{"bad log level", "log:\n  level: loud\n", "Log.Level"},
		{"bad url", "fetch:\n  base_url: not a url\n", "Fetch.BaseURL"},
		{"zero stalls", "expansion:\n  max_stalls: 0\n", "Expansion.MaxStalls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "tick_interval: 16ms")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, *Default(), back)
}

func TestLoadAllowedOrigins(t *testing.T) {
	path := writeConfig(t, `
server:
  allowed_origins:
    - https://graph.example.com
    - http://localhost:5173
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://graph.example.com", "http://localhost:5173"}, cfg.Server.AllowedOrigins)

	_, err = Load(writeConfig(t, "server:\n  allowed_origins: [\"\"]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Server.AllowedOrigins[0]")
}

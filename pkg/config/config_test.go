package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Routing, cfg.Routing)
	assert.Equal(t, 7, cfg.Storage.Resolution)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen-addr: ":8080"
storage:
  dir: /data/tiles
  resolution: 6
routing:
  u-turn-penalty: 45
  timeout: 3s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "/data/tiles", cfg.Storage.Dir)
	assert.Equal(t, 6, cfg.Storage.Resolution)
	assert.Equal(t, 45.0, cfg.Routing.UTurnPenalty)
	assert.Equal(t, 3*time.Second, cfg.Routing.Timeout)
	// untouched keys keep their defaults.
	assert.Equal(t, 100.0, cfg.Routing.SnapRadius)
	assert.Equal(t, Default().Cache, cfg.Cache)
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "routing:\n  u-turn-penalti: 45\n")
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NAVIGATORX_LISTEN_ADDR", ":9000")
	t.Setenv("NAVIGATORX_RESOLUTION", "5")
	t.Setenv("NAVIGATORX_ROUTE_TIMEOUT", "500ms")
	t.Setenv("NAVIGATORX_ALLOWED_ORIGINS", "http://a,http://b")

	path := writeConfig(t, "server:\n  listen-addr: \":8080\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 5, cfg.Storage.Resolution)
	assert.Equal(t, 500*time.Millisecond, cfg.Routing.Timeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{
		"NAVIGATORX_RESOLUTION":  "seven",
		"NAVIGATORX_SNAP_RADIUS": "far",
	}
	cfg := Default()
	err := cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	assert.ErrorContains(t, err, "NAVIGATORX_RESOLUTION")
	assert.ErrorContains(t, err, "NAVIGATORX_SNAP_RADIUS")
	assert.Equal(t, 7, cfg.Storage.Resolution)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"resolution", func(c *Config) { c.Storage.Resolution = 16 }},
		{"no storage", func(c *Config) { c.Storage.Dir = "" }},
		{"speed", func(c *Config) { c.Routing.PedestrianSpeedKMH = 0 }},
		{"snap radius", func(c *Config) { c.Routing.SnapRadius = -1 }},
		{"timeout", func(c *Config) { c.Routing.Timeout = 0 }},
		{"cache", func(c *Config) { c.Cache.MaxCost = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, Default().Validate())
}

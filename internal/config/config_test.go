package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("MISSIONS_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Mission.TimeLimit())
	assert.Equal(t, 500*time.Millisecond, cfg.Mission.TickInterval())
	assert.Equal(t, 10*time.Second, cfg.Mission.ProgressThreshold())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Storage.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Storage.Cache.TTL())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.yaml")
	yaml := `
mission:
  time_limit_seconds: 30
storage:
  driver: badger
  badger:
    path: /tmp/imports
eventbus:
  driver: nats
  url: nats://nats:4222
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Mission.TimeLimit())
	assert.Equal(t, 500*time.Millisecond, cfg.Mission.TickInterval(), "незаданное поле остаётся по умолчанию")
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/imports", cfg.Storage.Badger.Path)
	assert.Equal(t, "nats://nats:4222", cfg.EventBus.URL)
	assert.Equal(t, 24*time.Hour, cfg.EventBus.RetentionDuration())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  rest_port: 9000\n"), 0o644))
	t.Setenv("MISSIONS_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("MISSIONS_REST_PORT", "7001")
	assert.Equal(t, 7001, s.GetRESTPort())

	t.Setenv("MISSIONS_REST_PORT", "abc")
	assert.Equal(t, 8088, s.GetRESTPort())
}

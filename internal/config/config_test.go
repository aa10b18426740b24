package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-desktop/portfolio-sim/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./data", cfg.Data.DataDir)
	assert.Empty(t, cfg.Data.SQLiteDSN)
	assert.Equal(t, int64(2_000_000_000), cfg.Engine.MaxCost)
	assert.Equal(t, []string{"baseline", "optimistic", "pessimistic"}, cfg.Engine.DefaultScenarios)
	assert.GreaterOrEqual(t, cfg.Engine.Workers, 1)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcsim.yaml")
	yaml := `
server:
  port: 9090
  read_timeout: 5s
data:
  dir: /var/lib/mcsim
engine:
  workers: 2
  default_scenarios: [baseline, crisis]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("MCSIM_ENGINE_MAX_COST", "1000")
	t.Setenv("MCSIM_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/var/lib/mcsim", cfg.Data.DataDir)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, []string{"baseline", "crisis"}, cfg.Engine.DefaultScenarios)
	assert.Equal(t, int64(1000), cfg.Engine.MaxCost)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("MCSIM_LOG_LEVEL", "verbose")
	_, err = config.Load("")
	assert.Error(t, err)
}

// Package config loads service configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// MCSIM_SERVER_PORT or MCSIM_ENGINE_MAX_COST.
const EnvPrefix = "MCSIM"

// Config is the root configuration of the service binaries.
type Config struct {
	Server types.ServerConfig `mapstructure:"server"`
	Log    types.LogConfig    `mapstructure:"log"`
	Data   types.DataConfig   `mapstructure:"data"`
	Engine types.EngineConfig `mapstructure:"engine"`
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	engine := types.DefaultEngineConfig()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.enable_metrics", true)

	v.SetDefault("log.level", "info")

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.sqlite_dsn", "")

	v.SetDefault("engine.workers", runtime.NumCPU())
	v.SetDefault("engine.max_cost", engine.MaxCost)
	v.SetDefault("engine.default_scenarios", engine.DefaultScenarios)
}

// Load reads the configuration. An empty path skips the file and uses
// defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Engine.Workers < 1 {
		c.Engine.Workers = 1
	}
	if c.Engine.MaxCost < 0 {
		return fmt.Errorf("invalid engine.max_cost %d", c.Engine.MaxCost)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

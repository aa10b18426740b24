// Package types provides configuration types for the projection service.
package types

import (
	"runtime"
	"time"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Host          string        `json:"host" mapstructure:"host"`
	Port          int           `json:"port" mapstructure:"port"`
	ReadTimeout   time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`
	EnableMetrics bool          `json:"enableMetrics" mapstructure:"enable_metrics"`
}

// DataConfig represents historical data storage configuration
type DataConfig struct {
	DataDir   string `json:"dataDir" mapstructure:"dir"`
	SQLiteDSN string `json:"sqliteDsn" mapstructure:"sqlite_dsn"` // empty: use JSON files in DataDir
}

// EngineConfig configures the projection engine
type EngineConfig struct {
	Workers          int      `json:"workers" mapstructure:"workers"`   // path fan-out; 1 runs sequentially
	MaxCost          int64    `json:"maxCost" mapstructure:"max_cost"` // 0 disables the guard
	DefaultScenarios []string `json:"defaultScenarios" mapstructure:"default_scenarios"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultEngineConfig returns sensible defaults
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Workers:          runtime.NumCPU(),
		MaxCost:          2_000_000_000,
		DefaultScenarios: []string{"baseline", "optimistic", "pessimistic"},
	}
}

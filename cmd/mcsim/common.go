package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/atlas-desktop/portfolio-sim/internal/config"
	"github.com/atlas-desktop/portfolio-sim/internal/data"
	"github.com/atlas-desktop/portfolio-sim/internal/logging"
	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

// Commands lists every mcsim subcommand.
var Commands = []subcommands.Command{
	&runCmd{},
	&estimateCmd{},
	&importCmd{},
	&chartCmd{},
}

// env holds the flags shared by every subcommand.
type env struct {
	configPath string
	dataDir    string
	sqliteDSN  string
	logLevel   string
	workers    int
}

func (e *env) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.configPath, "config", "", "Config file (yaml or json).")
	f.StringVar(&e.dataDir, "data", "", "Price data directory. Overrides the config.")
	f.StringVar(&e.sqliteDSN, "sqlite", "", "SQLite price database. Overrides -data.")
	f.StringVar(&e.logLevel, "log-level", "", "Log level (debug, info, warn, error).")
	f.IntVar(&e.workers, "workers", 0, "Path simulation workers. Overrides the config.")
}

// load resolves the config and builds a stderr logger from it.
func (e *env) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, nil, err
	}
	if e.dataDir != "" {
		cfg.Data.DataDir = e.dataDir
	}
	if e.sqliteDSN != "" {
		cfg.Data.SQLiteDSN = e.sqliteDSN
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	if e.workers > 0 {
		cfg.Engine.Workers = e.workers
	}

	logger, err := logging.New(cfg.Log.Level, "stderr")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

// engine opens the configured price store and builds an engine over it. The
// caller closes the returned provider.
func (e *env) engine() (*montecarlo.Engine, data.Provider, *zap.Logger, error) {
	cfg, logger, err := e.load()
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := data.Open(logger, cfg.Data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open price store: %w", err)
	}
	return montecarlo.NewEngine(logger, &cfg.Engine, provider, nil), provider, logger, nil
}

// readRequest decodes a simulation request from path, or stdin when path
// is "-".
func readRequest(path string) (*types.SimulationRequest, error) {
	if path == "" {
		return nil, fmt.Errorf("a request file is required (-f)")
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open request file %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var req types.SimulationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("could not decode request %q: %w", path, err)
	}
	return &req, nil
}

// createOutput opens path for writing, or returns stdout when path is empty
// or "-".
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create %q: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

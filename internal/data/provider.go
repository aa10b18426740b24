package data

import (
	"context"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"go.uber.org/zap"
)

// Provider is a historical price source the engine and API read from.
type Provider interface {
	PriceSink
	PeriodReturns(ctx context.Context, ticker string) ([]float64, error)
	Tickers(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ Provider = (*Store)(nil)
	_ Provider = (*SQLiteProvider)(nil)
)

// Open selects the back end named by cfg: SQLite when a DSN is set, JSON
// files under the data directory otherwise.
func Open(logger *zap.Logger, cfg types.DataConfig) (Provider, error) {
	if cfg.SQLiteDSN != "" {
		db, err := OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite price store", zap.String("dsn", cfg.SQLiteDSN))
		return NewSQLiteProvider(logger, db), nil
	}

	store, err := NewStore(logger, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("using file price store", zap.String("dir", cfg.DataDir))
	return store, nil
}

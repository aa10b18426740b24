package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// DB is the subset of *sql.DB the provider needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// OpenSQLite opens the price database at dsn and ensures the schema exists.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates the prices table.
func InitSchema(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prices(
		ticker TEXT NOT NULL, date TEXT NOT NULL, close TEXT NOT NULL,
		PRIMARY KEY (ticker, date)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SQLiteProvider serves closes from a SQLite prices table.
type SQLiteProvider struct {
	logger *zap.Logger
	db     DB
}

// NewSQLiteProvider wraps an open database.
func NewSQLiteProvider(logger *zap.Logger, db DB) *SQLiteProvider {
	return &SQLiteProvider{logger: logger, db: db}
}

// InsertPrices upserts points for ticker in one transaction.
func (p *SQLiteProvider) InsertPrices(ctx context.Context, ticker string, points []types.PricePoint) error {
	ticker = NormalizeTicker(ticker)
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO prices(ticker,date,close) VALUES(?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, pt := range points {
		if _, err := stmt.ExecContext(ctx, ticker, pt.Date.UTC().Format(dateLayout), pt.Close.String()); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", ticker, pt.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// SavePrices implements PriceSink.
func (p *SQLiteProvider) SavePrices(ticker string, points []types.PricePoint) error {
	return p.InsertPrices(context.Background(), ticker, points)
}

// LoadPrices returns the closes of ticker sorted by date.
func (p *SQLiteProvider) LoadPrices(ctx context.Context, ticker string) ([]types.PricePoint, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT date, close FROM prices WHERE ticker=? ORDER BY date ASC`,
		NormalizeTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var out []types.PricePoint
	for rows.Next() {
		var ds, cs string
		if err := rows.Scan(&ds, &cs); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		date, err := time.Parse(dateLayout, ds)
		if err != nil {
			p.logger.Warn("skipping malformed date", zap.String("ticker", ticker), zap.String("date", ds))
			continue
		}
		closePrice, err := decimal.NewFromString(cs)
		if err != nil {
			p.logger.Warn("skipping malformed close", zap.String("ticker", ticker), zap.String("close", cs))
			continue
		}
		out = append(out, types.PricePoint{Date: date, Close: closePrice})
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// PeriodReturns returns the monthly return series of ticker.
func (p *SQLiteProvider) PeriodReturns(ctx context.Context, ticker string) ([]float64, error) {
	points, err := p.LoadPrices(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return MonthlyReturns(points), nil
}

// Tickers returns every ticker with at least one row.
func (p *SQLiteProvider) Tickers(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM prices ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

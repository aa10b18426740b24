// Package data provides historical price storage and monthly return series.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"go.uber.org/zap"
)

// Store provides access to historical closes kept as one JSON file per
// ticker under dataDir.
type Store struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	dataDir  string
	cache    map[string][]types.PricePoint
	metadata map[string]*TickerMetadata
}

// TickerMetadata contains metadata about available data for a ticker
type TickerMetadata struct {
	Ticker     string    `json:"ticker"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	PointCount int       `json:"pointCount"`
}

// NewStore creates a new price store
func NewStore(logger *zap.Logger, dataDir string) (*Store, error) {
	store := &Store{
		logger:   logger,
		dataDir:  dataDir,
		cache:    make(map[string][]types.PricePoint),
		metadata: make(map[string]*TickerMetadata),
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := store.loadMetadata(); err != nil {
		logger.Warn("Failed to load metadata", zap.Error(err))
	}

	return store, nil
}

// NormalizeTicker upper-cases a ticker and trims surrounding space.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func (s *Store) path(ticker string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(ticker)
	return filepath.Join(s.dataDir, name+".json")
}

// LoadPrices returns the closes of ticker sorted by date. A ticker without
// a data file yields no points and no error.
func (s *Store) LoadPrices(ctx context.Context, ticker string) ([]types.PricePoint, error) {
	ticker = NormalizeTicker(ticker)

	s.mu.RLock()
	cached, ok := s.cache[ticker]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path(ticker))
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no price data", zap.String("ticker", ticker))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var points []types.PricePoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to parse data for %s: %w", ticker, err)
	}
	sortPoints(points)

	s.mu.Lock()
	s.cache[ticker] = points
	s.mu.Unlock()

	return points, nil
}

// PeriodReturns returns the monthly return series of ticker.
func (s *Store) PeriodReturns(ctx context.Context, ticker string) ([]float64, error) {
	points, err := s.LoadPrices(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return MonthlyReturns(points), nil
}

// SavePrices merges points into ticker's file; a point on an existing date
// replaces the stored close.
func (s *Store) SavePrices(ticker string, points []types.PricePoint) error {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return fmt.Errorf("empty ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.cache[ticker]
	if existing == nil {
		if raw, err := os.ReadFile(s.path(ticker)); err == nil {
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("failed to parse data for %s: %w", ticker, err)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read data file: %w", err)
		}
	}
	merged := mergePoints(existing, points)

	raw, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(s.path(ticker), raw, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	s.cache[ticker] = merged
	if len(merged) > 0 {
		s.metadata[ticker] = &TickerMetadata{
			Ticker:     ticker,
			StartDate:  merged[0].Date,
			EndDate:    merged[len(merged)-1].Date,
			PointCount: len(merged),
		}
	}

	if err := s.saveMetadata(); err != nil {
		s.logger.Warn("Failed to save metadata", zap.Error(err))
	}
	return nil
}

// GetAvailableTickers returns every stored ticker in lexical order
func (s *Store) GetAvailableTickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.metadata))
	for ticker := range s.metadata {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Tickers implements Provider.
func (s *Store) Tickers(_ context.Context) ([]string, error) {
	return s.GetAvailableTickers(), nil
}

// Close implements Provider; the store holds no open handles.
func (s *Store) Close() error { return nil }

// GetDataRange returns the available data range for a ticker
func (s *Store) GetDataRange(ticker string) (start, end time.Time, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if meta, ok := s.metadata[NormalizeTicker(ticker)]; ok {
		return meta.StartDate, meta.EndDate, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("no data available for ticker %s", ticker)
}

// loadMetadata loads ticker metadata from disk
func (s *Store) loadMetadata() error {
	filename := filepath.Join(s.dataDir, "metadata.json")

	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var metadata map[string]*TickerMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return err
	}
	if metadata != nil {
		s.metadata = metadata
	}
	return nil
}

// saveMetadata saves ticker metadata to disk; callers hold the write lock
func (s *Store) saveMetadata() error {
	filename := filepath.Join(s.dataDir, "metadata.json")

	raw, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, raw, 0644)
}

// ClearCache clears the in-memory cache
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string][]types.PricePoint)
}

// GetCacheSize returns the number of cached tickers
func (s *Store) GetCacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.cache)
}

func sortPoints(points []types.PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}

// mergePoints returns the union of a and b keyed by day, b winning ties.
func mergePoints(a, b []types.PricePoint) []types.PricePoint {
	byDay := make(map[string]types.PricePoint, len(a)+len(b))
	for _, p := range a {
		byDay[p.Date.UTC().Format(dateLayout)] = p
	}
	for _, p := range b {
		byDay[p.Date.UTC().Format(dateLayout)] = p
	}
	out := make([]types.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sortPoints(out)
	return out
}

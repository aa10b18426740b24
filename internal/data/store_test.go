// Package data_test provides tests for the price stores.
package data_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlas-desktop/portfolio-sim/internal/data"
	"github.com/atlas-desktop/portfolio-sim/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func point(t time.Time, close string) types.PricePoint {
	return types.PricePoint{Date: t, Close: decimal.RequireFromString(close)}
}

func TestStoreSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := data.NewStore(zap.NewNop(), dir)
	require.NoError(t, err)

	err = store.SavePrices("spy", []types.PricePoint{
		point(day(2020, 2, 28), "110"),
		point(day(2020, 1, 31), "100"),
	})
	require.NoError(t, err)

	points, err := store.LoadPrices(context.Background(), "SPY")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Date.Before(points[1].Date))
	assert.Equal(t, []string{"SPY"}, store.GetAvailableTickers())

	start, end, err := store.GetDataRange("spy")
	require.NoError(t, err)
	assert.Equal(t, day(2020, 1, 31), start)
	assert.Equal(t, day(2020, 2, 28), end)

	// a fresh store reads files and metadata back from disk
	reopened, err := data.NewStore(zap.NewNop(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY"}, reopened.GetAvailableTickers())

	returns, err := reopened.PeriodReturns(context.Background(), "SPY")
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.Equal(t, 1, reopened.GetCacheSize())

	reopened.ClearCache()
	assert.Equal(t, 0, reopened.GetCacheSize())
}

func TestStoreMergesOnSave(t *testing.T) {
	store, err := data.NewStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SavePrices("QQQ", []types.PricePoint{
		point(day(2021, 1, 29), "300"),
		point(day(2021, 2, 26), "310"),
	}))
	require.NoError(t, store.SavePrices("QQQ", []types.PricePoint{
		point(day(2021, 2, 26), "320"),
		point(day(2021, 3, 31), "330"),
	}))

	points, err := store.LoadPrices(context.Background(), "QQQ")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "320", points[1].Close.String())
}

func TestStoreMissingTicker(t *testing.T) {
	store, err := data.NewStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	returns, err := store.PeriodReturns(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, returns)

	_, _, err = store.GetDataRange("NOPE")
	assert.Error(t, err)
}

func TestMonthlyReturnsResamplesAndFills(t *testing.T) {
	points := []types.PricePoint{
		point(day(2020, 1, 2), "90"),
		point(day(2020, 1, 31), "100"), // month-end close wins
		point(day(2020, 2, 14), "105"),
		point(day(2020, 2, 28), "110"),
		// March missing: carried forward
		point(day(2020, 4, 30), "121"),
	}

	returns := data.MonthlyReturns(points)
	require.Len(t, returns, 3)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, 0.0, returns[1], 1e-12)
	assert.InDelta(t, 0.10, returns[2], 1e-12)
}

func TestMonthlyReturnsTooShort(t *testing.T) {
	assert.Nil(t, data.MonthlyReturns(nil))
	assert.Nil(t, data.MonthlyReturns([]types.PricePoint{point(day(2020, 1, 31), "1")}))
}

func TestImportCSV(t *testing.T) {
	csvText := strings.Join([]string{
		"date,ticker,close",
		"2020-01-31,spy,100",
		"2020-02-28,spy,110",
		"2020-01-31,bnd,80",
		"",
		"2020-02-28,bnd,80.8",
	}, "\n")

	store, err := data.NewStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	reports, err := data.ImportCSV(strings.NewReader(csvText), store, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, reports["SPY"].TotalPoints)
	assert.Equal(t, 2, reports["BND"].TotalPoints)
	assert.False(t, reports["BND"].IsUsable) // too short for bootstrap

	returns, err := store.PeriodReturns(context.Background(), "BND")
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.01, returns[0], 1e-12)
}

func TestParseCSVErrors(t *testing.T) {
	tests := map[string]string{
		"bad date":   "2020/01/31,SPY,100",
		"bad close":  "2020-01-31,SPY,abc",
		"few fields": "2020-01-31,SPY",
		"no ticker":  "2020-01-31, ,100",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := data.ParseCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestSQLiteProvider(t *testing.T) {
	db, err := data.OpenSQLite(filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)

	provider := data.NewSQLiteProvider(zap.NewNop(), db)
	defer provider.Close()

	ctx := context.Background()
	require.NoError(t, provider.InsertPrices(ctx, "spy", []types.PricePoint{
		point(day(2020, 1, 31), "100"),
		point(day(2020, 2, 28), "110"),
		point(day(2020, 3, 31), "99"),
	}))
	// upsert replaces the March close
	require.NoError(t, provider.SavePrices("SPY", []types.PricePoint{point(day(2020, 3, 31), "121")}))

	returns, err := provider.PeriodReturns(ctx, "SPY")
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, 0.1, returns[1], 1e-12)

	tickers, err := provider.Tickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY"}, tickers)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	p, err := data.Open(zap.NewNop(), types.DataConfig{DataDir: dir})
	require.NoError(t, err)
	_, isStore := p.(*data.Store)
	assert.True(t, isStore)
	require.NoError(t, p.Close())

	p, err = data.Open(zap.NewNop(), types.DataConfig{DataDir: dir, SQLiteDSN: filepath.Join(dir, "p.db")})
	require.NoError(t, err)
	_, isSQLite := p.(*data.SQLiteProvider)
	assert.True(t, isSQLite)
	require.NoError(t, p.Close())
}

func TestQualityValidator(t *testing.T) {
	v := data.NewQualityValidator(zap.NewNop())
	points := []types.PricePoint{
		point(day(2020, 3, 31), "100"),
		point(day(2020, 1, 31), "100"),
		point(day(2020, 1, 31), "101"),
		point(day(2020, 2, 28), "0"),
		point(day(2020, 7, 31), "250"),
	}

	report := v.Validate(points, "XYZ")
	counts := map[string]int{}
	for _, issue := range report.Issues {
		counts[issue.Type]++
	}
	assert.Equal(t, 1, counts[data.IssueOutOfOrder])
	assert.Equal(t, 1, counts[data.IssueDuplicate])
	assert.Equal(t, 1, counts[data.IssueNonPositive])
	assert.Equal(t, 1, counts[data.IssueGap])
	assert.Equal(t, 1, counts[data.IssueExtremeMove])
	assert.Equal(t, 1, counts[data.IssueShortHistory])
	assert.False(t, report.IsUsable)
	assert.Equal(t, day(2020, 1, 31), report.StartDate)

	cleaned := v.CleanData(points)
	require.Len(t, cleaned, 3)
	assert.Equal(t, "101", cleaned[0].Close.String())
	assert.Equal(t, day(2020, 7, 31), cleaned[2].Date)
}

func TestQualityValidatorEmpty(t *testing.T) {
	report := data.NewQualityValidator(zap.NewNop()).Validate(nil, "NONE")
	assert.Equal(t, 0, report.QualityScore)
	assert.False(t, report.IsUsable)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, data.IssueNoData, report.Issues[0].Type)
}

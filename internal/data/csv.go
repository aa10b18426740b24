package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceSink persists closes for a ticker. Store and SQLiteProvider both
// implement it.
type PriceSink interface {
	SavePrices(ticker string, points []types.PricePoint) error
}

// ParseCSV reads long-format rows of date,ticker,close. A header row whose
// first field is "date" is skipped. Dates use YYYY-MM-DD.
func ParseCSV(r io.Reader) (map[string][]types.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	out := make(map[string][]types.PricePoint)
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: expected date,ticker,close, got %d fields", i+1, len(rec))
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: failed to parse date %q: %w", i+1, rec[0], err)
		}
		ticker := NormalizeTicker(rec[1])
		if ticker == "" {
			return nil, fmt.Errorf("line %d: empty ticker", i+1)
		}
		closePrice, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: failed to parse close %q: %w", i+1, rec[2], err)
		}
		out[ticker] = append(out[ticker], types.PricePoint{Date: date, Close: closePrice})
	}
	return out, nil
}

// ImportCSV parses r, cleans every ticker's closes with v and saves them
// into sink. A nil v uses NewQualityValidator defaults. It returns the
// quality report of each imported ticker, computed before cleaning.
func ImportCSV(r io.Reader, sink PriceSink, v *QualityValidator) (map[string]*QualityReport, error) {
	parsed, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = NewQualityValidator(zap.NewNop())
	}

	tickers := make([]string, 0, len(parsed))
	for ticker := range parsed {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	reports := make(map[string]*QualityReport, len(parsed))
	for _, ticker := range tickers {
		reports[ticker] = v.Validate(parsed[ticker], ticker)
		if err := sink.SavePrices(ticker, v.CleanData(parsed[ticker])); err != nil {
			return reports, fmt.Errorf("failed to save %s: %w", ticker, err)
		}
	}
	return reports, nil
}

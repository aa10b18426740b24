package data

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Issue types reported by QualityValidator.
const (
	IssueNoData       = "NO_DATA"
	IssueNonPositive  = "NON_POSITIVE_PRICE"
	IssueGap          = "GAP_DETECTED"
	IssueExtremeMove  = "EXTREME_MOVE"
	IssueDuplicate    = "DUPLICATE_DATE"
	IssueOutOfOrder   = "OUT_OF_ORDER"
	IssueShortHistory = "SHORT_HISTORY"
)

const (
	severityCritical = "critical"
	severityHigh     = "high"
	severityMedium   = "medium"
	severityLow      = "low"
)

const (
	minUsableMonths    = 12
	usableScoreMinimum = 70
)

// QualityValidator checks a close series before it is stored
type QualityValidator struct {
	logger *zap.Logger

	MaxGap  time.Duration // longest tolerated distance between closes
	MaxMove float64       // largest tolerated close-to-close move, as a fraction
}

// DataIssue represents a data quality problem
type DataIssue struct {
	Type     string    `json:"type"`
	Severity string    `json:"severity"`
	Date     time.Time `json:"date"`
	Ticker   string    `json:"ticker"`
	Message  string    `json:"message"`
	Value    string    `json:"value,omitempty"`
	Index    int       `json:"index,omitempty"`
}

// QualityReport summarizes data quality assessment
type QualityReport struct {
	Ticker       string      `json:"ticker"`
	TotalPoints  int         `json:"total_points"`
	Issues       []DataIssue `json:"issues"`
	QualityScore int         `json:"quality_score"` // 0-100
	IsUsable     bool        `json:"is_usable"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Recommendations []string `json:"recommendations"`
}

// NewQualityValidator creates a validator tuned for daily or monthly closes
func NewQualityValidator(logger *zap.Logger) *QualityValidator {
	return &QualityValidator{
		logger:  logger,
		MaxGap:  45 * 24 * time.Hour, // more than a month without a close
		MaxMove: 0.5,
	}
}

// Validate runs all quality checks on a close series in input order
func (v *QualityValidator) Validate(points []types.PricePoint, ticker string) *QualityReport {
	if len(points) == 0 {
		return &QualityReport{
			Ticker:       ticker,
			Issues:       []DataIssue{{Type: IssueNoData, Severity: severityCritical, Ticker: ticker, Message: "No data provided"}},
			QualityScore: 0,
		}
	}

	issues := make([]DataIssue, 0)
	issues = append(issues, v.checkOrder(points, ticker)...)

	sorted := append([]types.PricePoint(nil), points...)
	sortPoints(sorted)
	issues = append(issues, v.checkDuplicates(sorted, ticker)...)
	issues = append(issues, v.checkPrices(sorted, ticker)...)
	issues = append(issues, v.checkGaps(sorted, ticker)...)

	if n := len(MonthlyReturns(sorted)); n < minUsableMonths {
		issues = append(issues, DataIssue{
			Type:     IssueShortHistory,
			Severity: severityHigh,
			Ticker:   ticker,
			Message:  "Fewer than 12 monthly returns; simulations will use a synthetic series",
			Value:    strconv.Itoa(n),
		})
	}

	score := v.calculateQualityScore(len(points), issues)
	return &QualityReport{
		Ticker:          ticker,
		TotalPoints:     len(points),
		Issues:          issues,
		QualityScore:    score,
		IsUsable:        score >= usableScoreMinimum && !hasCriticalIssues(issues),
		StartDate:       sorted[0].Date,
		EndDate:         sorted[len(sorted)-1].Date,
		Recommendations: generateRecommendations(issues),
	}
}

func (v *QualityValidator) checkOrder(points []types.PricePoint, ticker string) []DataIssue {
	issues := make([]DataIssue, 0)
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			issues = append(issues, DataIssue{
				Type:     IssueOutOfOrder,
				Severity: severityLow,
				Date:     points[i].Date,
				Ticker:   ticker,
				Message:  "Close is out of chronological order",
				Index:    i,
			})
		}
	}
	return issues
}

func (v *QualityValidator) checkDuplicates(sorted []types.PricePoint, ticker string) []DataIssue {
	issues := make([]DataIssue, 0)
	for i := 1; i < len(sorted); i++ {
		if sameDay(sorted[i].Date, sorted[i-1].Date) {
			issues = append(issues, DataIssue{
				Type:     IssueDuplicate,
				Severity: severityMedium,
				Date:     sorted[i].Date,
				Ticker:   ticker,
				Message:  "Duplicate close for date",
				Index:    i,
			})
		}
	}
	return issues
}

func (v *QualityValidator) checkPrices(sorted []types.PricePoint, ticker string) []DataIssue {
	issues := make([]DataIssue, 0)
	var prev decimal.Decimal
	for i, p := range sorted {
		if !p.Close.IsPositive() {
			issues = append(issues, DataIssue{
				Type:     IssueNonPositive,
				Severity: severityCritical,
				Date:     p.Date,
				Ticker:   ticker,
				Message:  "Zero or negative close",
				Value:    p.Close.String(),
				Index:    i,
			})
			continue
		}
		if prev.IsPositive() {
			move := p.Close.Sub(prev).Div(prev).Abs()
			if move.InexactFloat64() > v.MaxMove {
				issues = append(issues, DataIssue{
					Type:     IssueExtremeMove,
					Severity: severityHigh,
					Date:     p.Date,
					Ticker:   ticker,
					Message:  "Extreme move: " + move.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%",
					Value:    move.StringFixed(4),
					Index:    i,
				})
			}
		}
		prev = p.Close
	}
	return issues
}

func (v *QualityValidator) checkGaps(sorted []types.PricePoint, ticker string) []DataIssue {
	issues := make([]DataIssue, 0)
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i].Date.Sub(sorted[i-1].Date); gap > v.MaxGap {
			issues = append(issues, DataIssue{
				Type:     IssueGap,
				Severity: severityMedium,
				Date:     sorted[i].Date,
				Ticker:   ticker,
				Message:  "Gap of " + decimal.NewFromFloat(gap.Hours()/24).StringFixed(0) + " days; months in between are forward filled",
				Index:    i,
			})
		}
	}
	return issues
}

// calculateQualityScore returns a 0-100 score
func (v *QualityValidator) calculateQualityScore(total int, issues []DataIssue) int {
	if total == 0 {
		return 0
	}

	penalty := 0.0
	for _, issue := range issues {
		switch issue.Severity {
		case severityCritical:
			penalty += 10.0
		case severityHigh:
			penalty += 5.0
		case severityMedium:
			penalty += 2.0
		case severityLow:
			penalty += 0.5
		}
	}

	// Longer series tolerate more isolated issues
	normalized := penalty / math.Max(1, float64(total)/100) * 10
	score := 100.0 - math.Min(normalized, 100)
	return int(math.Max(0, math.Min(100, score)))
}

// CleanData sorts closes, keeps the last close per day and drops
// non-positive values
func (v *QualityValidator) CleanData(points []types.PricePoint) []types.PricePoint {
	if len(points) == 0 {
		return points
	}

	sorted := append([]types.PricePoint(nil), points...)
	sortPoints(sorted)

	cleaned := make([]types.PricePoint, 0, len(sorted))
	for _, p := range sorted {
		if !p.Close.IsPositive() {
			continue
		}
		if n := len(cleaned); n > 0 && sameDay(cleaned[n-1].Date, p.Date) {
			cleaned[n-1] = p
			continue
		}
		cleaned = append(cleaned, p)
	}

	v.logger.Debug("Data cleaning complete",
		zap.Int("original_points", len(points)),
		zap.Int("cleaned_points", len(cleaned)),
		zap.Int("removed", len(points)-len(cleaned)),
	)
	return cleaned
}

func hasCriticalIssues(issues []DataIssue) bool {
	for _, issue := range issues {
		if issue.Severity == severityCritical {
			return true
		}
	}
	return false
}

func generateRecommendations(issues []DataIssue) []string {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}

	recs := make([]string, 0)
	if counts[IssueNonPositive] > 0 {
		recs = append(recs, "Non-positive closes were dropped; verify the data source")
	}
	if counts[IssueGap] > 0 {
		recs = append(recs, "Fill data gaps or accept flat returns for the missing months")
	}
	if counts[IssueExtremeMove] > 0 {
		recs = append(recs, "Check extreme moves for unadjusted splits or bad prints")
	}
	if counts[IssueDuplicate] > 0 {
		recs = append(recs, "Duplicate dates were collapsed to the last close")
	}
	if counts[IssueShortHistory] > 0 {
		recs = append(recs, "Import at least 13 months of closes to use the ticker's own history")
	}
	if len(recs) == 0 {
		recs = append(recs, "Data quality is acceptable for simulation")
	}
	sort.Strings(recs)
	return recs
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

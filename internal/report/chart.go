// Package report renders projection summaries as charts and text.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"github.com/atlas-desktop/portfolio-sim/pkg/utils"
	"github.com/vicanso/go-charts/v2"
)

var bandNames = []string{"P5", "P25", "P50", "P75", "P95", "Expected"}

// FanChart renders the percentile bands and the expected path of a summary
// as a PNG line chart.
func FanChart(title string, sum *types.Summary) ([]byte, error) {
	if sum == nil || len(sum.Expected) == 0 {
		return nil, fmt.Errorf("summary has no data")
	}

	years := len(sum.Expected)
	xLabels := make([]string, years)
	for i := range xLabels {
		xLabels[i] = "Y" + strconv.Itoa(i+1)
	}

	series := [][]float64{
		sum.Percentiles.P5,
		sum.Percentiles.P25,
		sum.Percentiles.P50,
		sum.Percentiles.P75,
		sum.Percentiles.P95,
		sum.Expected,
	}

	subtitle := ""
	if m := sum.PerformanceMetrics; m != nil {
		subtitle = fmt.Sprintf("Median: %s | VaR 5%%: %s | Avg MaxDD: %s | Sharpe: %s",
			utils.FormatMoney(m.MedianFinal),
			utils.FormatMoney(m.VaR5),
			utils.FormatPercent(m.AvgMaxDrawdown),
			utils.FormatOptionalRatio(m.SharpeRatio))
	}

	splitNum := years
	if splitNum > 10 {
		splitNum = 10
	}

	p, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: bandNames,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// SelectSummary picks the summary of one scenario out of a response. In
// batch mode portfolio names the portfolio key and defaults to the first.
func SelectSummary(resp *types.SimulationResponse, scenario, portfolio string) (*types.Summary, string, error) {
	res, ok := resp.Scenarios[scenario]
	if !ok {
		return nil, "", fmt.Errorf("scenario %q not in response", scenario)
	}
	if res.Summary != nil {
		return res.Summary, scenario, nil
	}

	if portfolio == "" {
		portfolio = "portfolio_1"
	}
	sum, ok := res.PortfolioResults[portfolio]
	if !ok {
		return nil, "", fmt.Errorf("portfolio %q not in response", portfolio)
	}
	return sum, scenario + " / " + portfolio, nil
}

// WriteSummaryTable writes the final-value statistics of every scenario
// (and portfolio, in batch mode) as an aligned text table.
func WriteSummaryTable(w io.Writer, resp *types.SimulationResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "scenario\tportfolio\tmedian\tmean\tVaR 5%\tCVaR 5%\tavg return\tmax dd\tsharpe\t")

	scenarios := make([]string, 0, len(resp.Scenarios))
	for name := range resp.Scenarios {
		scenarios = append(scenarios, name)
	}
	sort.Strings(scenarios)

	for _, name := range scenarios {
		res := resp.Scenarios[name]
		if res.Summary != nil {
			writeRow(tw, name, "-", res.Summary)
			continue
		}
		keys := make([]string, 0, len(res.PortfolioResults))
		for k := range res.PortfolioResults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeRow(tw, name, k, res.PortfolioResults[k])
		}
	}
	return tw.Flush()
}

func writeRow(w io.Writer, scenario, portfolio string, sum *types.Summary) {
	m := sum.PerformanceMetrics
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		scenario, portfolio,
		utils.FormatMoney(m.MedianFinal),
		utils.FormatMoney(m.MeanFinal),
		utils.FormatMoney(m.VaR5),
		utils.FormatMoney(m.CVaR5),
		utils.FormatPercent(m.AvgAnnualReturn),
		utils.FormatPercent(m.AvgMaxDrawdown),
		utils.FormatOptionalRatio(m.SharpeRatio),
	)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"github.com/atlas-desktop/portfolio-sim/internal/data"
)

type importCmd struct {
	env
	csvFile string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import closing prices from a CSV file" }
func (*importCmd) Usage() string {
	return `mcsim import -csv <prices.csv>

  Reads long-format rows of date,ticker,close (YYYY-MM-DD dates), cleans
  each ticker's series and merges it into the configured price store. A
  quality report is printed per ticker.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.env.SetFlags(f)
	f.StringVar(&c.csvFile, "csv", "", "CSV file to import.")
}

func (c *importCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.csvFile == "" {
		fmt.Fprintln(os.Stderr, "a CSV file is required (-csv)")
		return subcommands.ExitUsageError
	}

	cfg, logger, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	provider, err := data.Open(logger, cfg.Data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer provider.Close()

	f, err := os.Open(c.csvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open %q: %v\n", c.csvFile, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	reports, err := data.ImportCSV(f, provider, data.NewQualityValidator(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		return subcommands.ExitFailure
	}

	tickers := make([]string, 0, len(reports))
	for t := range reports {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		r := reports[t]
		fmt.Printf("%-8s %5d points  score %3d  usable %-5t  %s .. %s\n",
			t, r.TotalPoints, r.QualityScore, r.IsUsable,
			r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
		for _, rec := range r.Recommendations {
			fmt.Printf("         - %s\n", rec)
		}
	}
	return subcommands.ExitSuccess
}

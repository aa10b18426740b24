package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
	"github.com/atlas-desktop/portfolio-sim/internal/report"
)

type chartCmd struct {
	env
	file      string
	scenario  string
	portfolio string
	output    string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render the percentile fan of one scenario as PNG" }
func (*chartCmd) Usage() string {
	return `mcsim chart -f <request.json> [-scenario baseline] [-portfolio portfolio_1] -o <fan.png>

  Runs the request under a single scenario and renders the p5..p95 bands and
  the expected path per year.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	c.env.SetFlags(f)
	f.StringVar(&c.file, "f", "", "Request file, or - for stdin.")
	f.StringVar(&c.scenario, "scenario", "baseline", "Scenario to chart (baseline, optimistic, pessimistic).")
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio key in batch mode (defaults to portfolio_1).")
	f.StringVar(&c.output, "o", "fan.png", "Output PNG file.")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := readRequest(c.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	scenario, err := montecarlo.ParseScenario(c.scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	req.Scenarios = []string{string(scenario)}

	engine, provider, logger, err := c.engine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer provider.Close()
	defer logger.Sync()

	resp, err := engine.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		return subcommands.ExitFailure
	}

	sum, title, err := report.SelectSummary(resp, string(scenario), c.portfolio)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	png, err := report.FanChart(title, sum)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.output, png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "could not write %q: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", c.output)
	return subcommands.ExitSuccess
}

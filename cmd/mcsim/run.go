package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/atlas-desktop/portfolio-sim/internal/report"
	"github.com/atlas-desktop/portfolio-sim/pkg/utils"
)

type runCmd struct {
	env
	file   string
	output string
	table  bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a projection request and write its result" }
func (*runCmd) Usage() string {
	return `mcsim run -f <request.json> [-o <out.json>] [-table]

  Projects the request under each of its scenarios and writes the JSON
  response. With -table a summary of final values is printed to stderr.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.env.SetFlags(f)
	f.StringVar(&c.file, "f", "", "Request file, or - for stdin.")
	f.StringVar(&c.output, "o", "", "Output file for the JSON response (defaults to stdout).")
	f.BoolVar(&c.table, "table", false, "Print a summary table to stderr.")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := readRequest(c.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	engine, provider, logger, err := c.engine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer provider.Close()
	defer logger.Sync()

	start := time.Now()
	resp, err := engine.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		return subcommands.ExitFailure
	}
	logger.Info("simulation complete", zap.String("elapsed", utils.FormatDuration(time.Since(start))))

	out, err := createOutput(c.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "could not write response: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.table {
		if err := report.WriteSummaryTable(os.Stderr, resp); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

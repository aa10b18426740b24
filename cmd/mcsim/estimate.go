package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type estimateCmd struct {
	env
	file string
}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "report the draw count of a request without running it" }
func (*estimateCmd) Usage() string {
	return `mcsim estimate -f <request.json>

  Validates the request and prints its cost in random draws together with
  the configured limit. Exits non-zero when the request would be rejected.
`
}

func (c *estimateCmd) SetFlags(f *flag.FlagSet) {
	c.env.SetFlags(f)
	f.StringVar(&c.file, "f", "", "Request file, or - for stdin.")
}

func (c *estimateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := readRequest(c.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	engine, provider, _, err := c.engine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer provider.Close()

	estimate, err := engine.Estimate(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid request: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := json.NewEncoder(os.Stdout).Encode(estimate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !estimate.Allowed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

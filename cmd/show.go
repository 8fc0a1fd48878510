package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/renderer"
	"github.com/google/subcommands"
)

type showCmd struct {
	dataDir string
	format  string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the latest snapshot of an account" }
func (*showCmd) Usage() string {
	return `ees show [-data-dir <dir>] [-format md|json|csv] <account>

Displays the most recent snapshot stored for an account. No request is sent
to the portal.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataDir, "data-dir", "", "Snapshot directory, overrides EEDATADIR")
	f.StringVar(&c.format, "format", "md", "Output format: md, json or csv")
}

func (c *showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one account id is required.")
		f.Usage()
		return subcommands.ExitUsageError
	}
	dir := c.dataDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not load configuration: %v\n", err)
			return subcommands.ExitFailure
		}
		dir = cfg.DataDir
	}

	s, err := holdings.LatestSnapshot(dir, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	switch c.format {
	case "md":
		printMarkdown(renderer.SnapshotMarkdown(s))
	case "json":
		err = holdings.EncodeJSON(stdout, s.Holdings)
	case "csv":
		err = holdings.EncodeCSV(stdout, s.Holdings)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

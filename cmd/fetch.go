package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/pipeline"
	"github.com/etnz/holdings/renderer"
	"github.com/google/subcommands"
)

// accountList is a repeatable -account flag.
type accountList []string

func (l *accountList) String() string { return strings.Join(*l, ",") }
func (l *accountList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type fetchCmd struct {
	detail   bool
	strategy string
	schema   string
	dataDir  string
	accounts accountList
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "scrape the holdings of every account into snapshots" }
func (*fetchCmd) Usage() string {
	return `ees fetch [-detail] [-strategy rotate|overlay] [-schema <file>] [-data-dir <dir>] [-account <id>...]

Signs in the portal, lists the accounts, and for each usable account
scrapes its holdings and writes a JSON and a CSV snapshot under the data
directory.

Accounts the portal refuses are skipped, so are accounts without holdings.
Any other error stops the run.

Flags override the EEDETAIL, EESTRATEGY, EESCHEMA and EEDATADIR variables.
See 'ees topic config'.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.detail, "detail", false, "Also fetch the detail page of each holding")
	f.StringVar(&c.strategy, "strategy", "", "Reconciliation strategy: rotate or overlay")
	f.StringVar(&c.schema, "schema", "", "Selector schema file")
	f.StringVar(&c.dataDir, "data-dir", "", "Snapshot directory")
	f.Var(&c.accounts, "account", "Only fetch this account id (repeatable)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.strategy != "" {
		cfg.Strategy = c.strategy
	}
	if c.schema != "" {
		cfg.Schema = c.schema
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	cfg.Detail = cfg.Detail || c.detail

	ctx, err = withLogger(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	p, err := newPipeline(cfg, pipeline.Options{
		Detail:   cfg.Detail,
		Accounts: c.accounts,
		Writer:   holdings.DirWriter{Dir: cfg.DataDir},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	summary, err := p.Run(ctx)
	if len(summary.Results) > 0 {
		printMarkdown(renderer.SummaryMarkdown(summary))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: fetch failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

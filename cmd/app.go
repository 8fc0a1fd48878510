// Package cmd implements the ees command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/holdings/config"
	"github.com/etnz/holdings/pipeline"
	"github.com/etnz/holdings/portal"
	"github.com/etnz/holdings/scrape"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Commands are the ees subcommands.
var Commands = []subcommands.Command{
	&fetchCmd{},
	&accountsCmd{},
	&showCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var envFile = flag.String("env", ".env", "Path to the .env file completing the environment")
var logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides EELOGLEVEL")
var raw = flag.Bool("raw", false, "Print markdown as is, without terminal rendering")

// stdout receives the command output, stderr the logs.
var stdout io.Writer = os.Stdout
var stderr io.Writer = os.Stderr

// LogTimeFormat is the timestamp layout of log lines.
const LogTimeFormat = "2006-01-02 15:04:05.000"

// loadConfig reads the configuration from the environment and the .env file.
func loadConfig() (*config.Config, error) {
	return config.Load(*envFile)
}

// newLogger returns a console logger writing to w at level ("" means info).
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	// the console writer reparses the time field, keep its milliseconds.
	zerolog.TimeFieldFormat = time.RFC3339Nano
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: LogTimeFormat, NoColor: !isTerminal(w)}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger(), nil
}

// withLogger returns ctx carrying the logger configured by cfg and -log-level.
func withLogger(ctx context.Context, cfg *config.Config) (context.Context, error) {
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger, err := newLogger(stderr, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx), nil
}

// newPipeline validates cfg and returns a pipeline on the configured portal.
func newPipeline(cfg *config.Config, opts pipeline.Options) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := cfg.ParseStrategy()
	if err != nil {
		return nil, err
	}
	schema, err := scrape.LoadSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	client, err := portal.NewClient(cfg.URL, portal.LoggingTransport(nil))
	if err != nil {
		return nil, err
	}
	opts.Credentials = cfg.Credentials()
	opts.Landing = cfg.Landing
	opts.Schema = schema
	opts.Strategy = strategy
	return pipeline.New(client, opts), nil
}

// printMarkdown renders md for the terminal, or prints it as is when the
// output is not a terminal or -raw is set.
func printMarkdown(md string) {
	if *raw || !isTerminal(stdout) {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/portal/portaltest"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects the command output and logs for the duration of the test.
func capture(t *testing.T) (out, logs *bytes.Buffer) {
	t.Helper()
	out, logs = new(bytes.Buffer), new(bytes.Buffer)
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, logs
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, logs
}

// setEnv configures the environment for a portal at url, and no .env file.
func setEnv(t *testing.T, url string) {
	t.Helper()
	old := *envFile
	*envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { *envFile = old })
	t.Setenv("EEURL", url)
	t.Setenv("EEUSERNAME", "jane")
	t.Setenv("EEPASSWORD", "secret")
	t.Setenv("EEDATADIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("EESCHEMA", "")
	t.Setenv("EESTRATEGY", "")
	t.Setenv("EEDETAIL", "")
	t.Setenv("EELOGLEVEL", "")
	t.Setenv("EELANDING", "")
}

func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return c.Execute(context.Background(), f)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "")
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("signed in")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} .*signed in`), buf.String())

	buf.Reset()
	logger.Info().Msg("first")
	time.Sleep(20 * time.Millisecond)
	logger.Info().Msg("second")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	stamp := func(line string) time.Time {
		ts, err := time.ParseInLocation(LogTimeFormat, line[:len(LogTimeFormat)], time.Local)
		require.NoError(t, err)
		return ts
	}
	elapsed := stamp(lines[1]).Sub(stamp(lines[0]))
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond, "timestamps keep their milliseconds")
	assert.Less(t, elapsed, time.Second)

	buf.Reset()
	logger, err = newLogger(&buf, "DEBUG")
	require.NoError(t, err)
	logger.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	_, err = newLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestFetchCmd(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", "holdings.html"))
	require.NoError(t, err)
	srv := portaltest.NewServer("jane", "secret",
		portaltest.Account{ID: "111", CurrencyID: "2", CanUse: false},
		portaltest.Account{ID: "222", CurrencyID: "3", CanUse: true, Holdings: page},
	)
	defer srv.Close()
	setEnv(t, srv.URL)
	out, logs := capture(t)
	dir := t.TempDir()

	status := execute(t, &fetchCmd{}, "-data-dir", dir, "-strategy", "overlay")
	require.Equal(t, subcommands.ExitSuccess, status, logs.String())

	files, err := filepath.Glob(filepath.Join(dir, "222", "json", "222-*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NoDirExists(t, filepath.Join(dir, "111"))

	s, err := holdings.LatestSnapshot(dir, "222")
	require.NoError(t, err)
	require.Len(t, s.Holdings, 3)
	assert.Equal(t, holdings.Str("R 250.00"), s.Holdings[0].PnlValue, "overlay splits the pnl cell")

	assert.Contains(t, out.String(), "| 222 | written | 3 |")
	assert.Contains(t, logs.String(), "Can't use account '111', skipping...")
}

func TestFetchCmd_Landing(t *testing.T) {
	srv := portaltest.NewServer("jane", "secret")
	defer srv.Close()
	setEnv(t, srv.URL)
	t.Setenv("EELANDING", "/")
	capture(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, &fetchCmd{}, "-data-dir", t.TempDir()))
	requests := srv.Requests()
	require.NotEmpty(t, requests)
	assert.Equal(t, "GET", requests[0].Method)
	assert.Equal(t, "/", requests[0].Path, "the session opens on the configured landing page")
}

func TestFetchCmd_MissingCredentials(t *testing.T) {
	srv := portaltest.NewServer("jane", "secret")
	defer srv.Close()
	setEnv(t, srv.URL)
	t.Setenv("EEPASSWORD", "")
	capture(t)

	status := execute(t, &fetchCmd{}, "-data-dir", t.TempDir())
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Empty(t, srv.Requests(), "no request without credentials")
}

func TestAccountsCmd(t *testing.T) {
	srv := portaltest.NewServer("jane", "secret",
		portaltest.Account{ID: "111", CurrencyID: "2", CanUse: false},
		portaltest.Account{ID: "222", CurrencyID: "3", CanUse: true},
	)
	defer srv.Close()
	setEnv(t, srv.URL)
	out, _ := capture(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, &accountsCmd{}))
	assert.Contains(t, out.String(), "| 111 | 2 |   |")
	assert.Contains(t, out.String(), "| 222 | 3 | X |")
}

func TestShowCmd(t *testing.T) {
	setEnv(t, "")
	dir := t.TempDir()
	w := holdings.DirWriter{Dir: dir}
	_, err := w.WriteSnapshot(holdings.Snapshot{
		AccountID: "222",
		Time:      time.Date(2024, time.March, 5, 7, 8, 9, 0, time.Local),
		Holdings:  []holdings.Holding{{Name: "Satrix 40 ETF", Shares: holdings.Str("12.5")}},
	})
	require.NoError(t, err)

	tests := []struct {
		args   []string
		status subcommands.ExitStatus
		want   string
	}{
		{args: []string{"-data-dir", dir, "222"}, want: "| Satrix 40 ETF | 12.5 |"},
		{args: []string{"-data-dir", dir, "-format", "csv", "222"}, want: "Satrix 40 ETF,12.5,,,,,,,\n"},
		{args: []string{"-data-dir", dir, "-format", "json", "222"}, want: `"name":"Satrix 40 ETF","shares":"12.5"`},
		{args: []string{"-data-dir", dir, "-format", "xml", "222"}, status: subcommands.ExitUsageError},
		{args: []string{"-data-dir", dir, "333"}, status: subcommands.ExitFailure},
		{args: []string{"-data-dir", dir}, status: subcommands.ExitUsageError},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, _ := capture(t)
			assert.Equal(t, tc.status, execute(t, &showCmd{}, tc.args...))
			assert.Contains(t, out.String(), tc.want)
		})
	}
}

func TestTopicCmd(t *testing.T) {
	out, _ := capture(t)
	require.Equal(t, subcommands.ExitSuccess, execute(t, &topicCmd{}))
	assert.Contains(t, out.String(), "# ees documentation")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, &topicCmd{}, "strategies"))
	assert.Contains(t, out.String(), "# Strategies")

	assert.Equal(t, subcommands.ExitFailure, execute(t, &topicCmd{}, "nope"))
}

func TestCompletion(t *testing.T) {
	fs := flag.NewFlagSet("ees", flag.ContinueOnError)
	fs.String("env", ".env", "")
	fs.Bool("raw", false, "")

	c := Completion(fs)
	var names []string
	for name := range c.Sub {
		names = append(names, name)
	}
	slices.Sort(names)
	assert.Equal(t, []string{"accounts", "fetch", "show", "topic"}, names)
	assert.Contains(t, c.Flags, "env")
	assert.Contains(t, c.Flags, "raw")

	fetch := c.Sub["fetch"]
	for _, name := range []string{"detail", "strategy", "schema", "data-dir", "account"} {
		assert.Contains(t, fetch.Flags, name)
	}
	assert.ElementsMatch(t, []string{"rotate", "overlay"}, fetch.Flags["strategy"].Predict(""))
	assert.Contains(t, c.Sub["topic"].Args.Predict(""), "strategies")
}

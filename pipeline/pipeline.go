// Package pipeline runs a scrape: sign in, enumerate the accounts, and for
// each usable account select it, scrape its holdings, reconcile them and
// write a snapshot.
//
// Every step is sequential: the portal keeps the selected account in the
// server side session, so two accounts cannot be scraped at the same time
// with one session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/portal"
	"github.com/etnz/holdings/scrape"
	"github.com/rs/zerolog"
)

// Options configures a Pipeline.
type Options struct {
	Credentials portal.Credentials
	// Landing is the page opening the session, portal.SignInPath if empty.
	Landing  string
	Schema   scrape.Schema
	Strategy holdings.Strategy
	// Detail enables fetching the detail page of each holding.
	Detail bool
	// Accounts restricts the run to these account ids. Empty means all.
	Accounts []string
	Writer   holdings.SnapshotWriter
	// Now stamps the snapshots, time.Now if nil.
	Now func() time.Time
}

// Status is the outcome of one account.
type Status string

const (
	Written  Status = "written"  // a snapshot was written
	Unusable Status = "unusable" // the portal refused the account
	Empty    Status = "empty"    // the account has no holdings
	Filtered Status = "filtered" // excluded by Options.Accounts
)

// Result is the outcome of one account.
type Result struct {
	Account  holdings.Account
	Status   Status
	Holdings int
	Files    []string
}

// Summary is the outcome of a run, one Result per account in enumeration
// order.
type Summary struct {
	Results []Result
}

// Written returns the number of snapshots written.
func (s Summary) Written() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == Written {
			n++
		}
	}
	return n
}

// Pipeline scrapes the portal.
type Pipeline struct {
	client *portal.Client
	opts   Options
}

// New returns a Pipeline using client.
func New(client *portal.Client, opts Options) *Pipeline {
	if opts.Strategy == "" {
		opts.Strategy = holdings.Rotate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{client: client, opts: opts}
}

// Run scrapes every account.
//
// Unusable accounts and accounts without holdings are skipped. Any other
// failure aborts the run: the Summary then holds the accounts done so far.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if p.opts.Writer == nil {
		return summary, errors.New("no snapshot writer")
	}
	log := zerolog.Ctx(ctx)

	session, accounts, err := p.enumerate(ctx)
	if err != nil {
		return summary, err
	}
	if len(accounts) == 0 {
		log.Warn().Msg("No account found")
		return summary, nil
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r, err := p.account(ctx, session, account)
		if err != nil {
			return summary, fmt.Errorf("account %q: %w", account.ID, err)
		}
		summary.Results = append(summary.Results, r)
	}
	return summary, nil
}

// enumerate signs in and lists the accounts.
func (p *Pipeline) enumerate(ctx context.Context) (portal.Session, []holdings.Account, error) {
	session, err := p.client.Authenticate(ctx, p.opts.Credentials, p.opts.Landing)
	if err != nil {
		return portal.Session{}, nil, err
	}
	page, err := p.client.AccountOverview(ctx, session)
	if err != nil {
		return portal.Session{}, nil, err
	}
	accounts, err := scrape.Accounts(page, p.opts.Schema.Accounts)
	if err != nil {
		return portal.Session{}, nil, fmt.Errorf("cannot list accounts: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Int("accounts", len(accounts)).Msg("accounts listed")
	return session, accounts, nil
}

// account runs select, scrape, reconcile and write for one account.
func (p *Pipeline) account(ctx context.Context, session portal.Session, account holdings.Account) (Result, error) {
	log := zerolog.Ctx(ctx).With().Str("account", account.ID).Logger()
	r := Result{Account: account}

	if len(p.opts.Accounts) > 0 && !slices.Contains(p.opts.Accounts, account.ID) {
		log.Debug().Msg("account filtered out")
		r.Status = Filtered
		return r, nil
	}

	canUse, err := p.client.CanUse(ctx, session, account.CurrencyID)
	if err != nil {
		return r, err
	}
	if !canUse {
		log.Warn().Msgf("Can't use account '%s', skipping...", account.ID)
		r.Status = Unusable
		return r, nil
	}
	if err := p.client.Select(ctx, session, account.ID); err != nil {
		return r, err
	}

	values, shares, err := p.scrape(ctx, session)
	if err != nil {
		return r, err
	}
	if len(values) == 0 {
		log.Warn().Msgf("No holdings found for account %s", account.ID)
		r.Status = Empty
		return r, nil
	}

	list := p.opts.Strategy.Merge(values, shares)
	snapshot := holdings.Snapshot{AccountID: account.ID, Time: p.opts.Now(), Holdings: list}
	files, err := p.opts.Writer.WriteSnapshot(snapshot)
	if err != nil {
		return r, fmt.Errorf("cannot write snapshot: %w", err)
	}
	log.Info().Int("holdings", len(list)).Strs("files", files).Msgf("Scrapes saved to file(s) for %s", snapshot.FileName())

	r.Status = Written
	r.Holdings = len(list)
	r.Files = files
	return r, nil
}

// scrape reads both views of the selected account's holdings, with the
// details when enabled.
func (p *Pipeline) scrape(ctx context.Context, session portal.Session) ([]holdings.ValueView, []holdings.ShareView, error) {
	page, err := p.client.HoldingsView(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	values, err := scrape.ValueView(page, p.opts.Schema.Value)
	if err != nil {
		return nil, nil, err
	}
	shares, err := scrape.ShareView(page, p.opts.Schema.Share)
	if err != nil {
		return nil, nil, err
	}
	if p.opts.Detail {
		for i := range values {
			if err := p.detail(ctx, session, &values[i]); err != nil {
				return nil, nil, err
			}
		}
	}
	return values, shares, nil
}

// detail attaches the detail page content to v, when v links to one.
func (p *Pipeline) detail(ctx context.Context, session portal.Session, v *holdings.ValueView) error {
	if !portal.HasDetail(v.DetailURL) {
		return nil
	}
	page, err := p.client.Detail(ctx, session, v.DetailURL)
	if err != nil {
		return fmt.Errorf("holding %q: %w", v.Name, err)
	}
	d, err := scrape.Detail(page, p.opts.Schema.Detail)
	if err != nil {
		return fmt.Errorf("holding %q: %w", v.Name, err)
	}
	v.Detail = d
	return nil
}

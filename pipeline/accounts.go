package pipeline

import (
	"context"

	"github.com/etnz/holdings"
)

// AccountStatus is an account and whether the portal lets it be selected.
type AccountStatus struct {
	holdings.Account
	CanUse bool
}

// Accounts signs in and lists the accounts with their usability, without
// selecting any of them.
func (p *Pipeline) Accounts(ctx context.Context) ([]AccountStatus, error) {
	session, accounts, err := p.enumerate(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]AccountStatus, 0, len(accounts))
	for _, a := range accounts {
		canUse, err := p.client.CanUse(ctx, session, a.CurrencyID)
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, AccountStatus{Account: a, CanUse: canUse})
	}
	return statuses, nil
}

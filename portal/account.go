package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

const (
	accountOverviewPath = "/AccountOverview"
	canUsePath          = "/Menu/CanUseSelectedAccount"
	updateCurrencyPath  = "/Menu/UpdateCurrency"
	holdingsViewPath    = "/AccountOverview/GetHoldingsView"

	// holdingsCategory is the stock view category listing all holdings.
	holdingsCategory = "12"
)

// AccountOverview returns the HTML of the account overview page, listing the
// account tabs.
func (c *Client) AccountOverview(ctx context.Context, s Session) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, accountOverviewPath, s, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot get account overview: %w", err)
	}
	return resp.Body, nil
}

// CanUse asks the portal whether the account trading in currencyID can be
// selected.
func (c *Client) CanUse(ctx context.Context, s Session, currencyID string) (bool, error) {
	q := url.Values{}
	q.Set("tradingCurrencyId", currencyID)
	q.Set("_", fmt.Sprint(c.epoch()))
	resp, err := c.Do(ctx, http.MethodGet, canUsePath+"?"+q.Encode(), s, nil)
	if err != nil {
		return false, fmt.Errorf("cannot check account usability: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("cannot check account usability: got status %d", resp.StatusCode)
	}
	return parseCanUse(resp.Body)
}

// parseCanUse reads the CanUse flag of a usability answer.
func parseCanUse(body []byte) (bool, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("could not decode usability json: %w", err)
	}
	v, err := jsonpath.Get("$.CanUse", doc)
	if err != nil {
		return false, fmt.Errorf("could not find CanUse in usability json: %w", err)
	}
	canUse, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("CanUse is not a boolean: %v", v)
	}
	return canUse, nil
}

// Select makes accountID the active account of the session: the following
// holdings requests are answered for that account.
//
// Only the status is checked, the portal does not confirm the switch.
func (c *Client) Select(ctx context.Context, s Session, accountID string) error {
	body := []byte("trustAccountId=" + url.QueryEscape(accountID))
	if _, err := c.Do(ctx, http.MethodPost, updateCurrencyPath, s, body); err != nil {
		return fmt.Errorf("cannot select account %q: %w", accountID, err)
	}
	return nil
}

// HoldingsView returns the HTML of the holdings view of the active account.
func (c *Client) HoldingsView(ctx context.Context, s Session) ([]byte, error) {
	q := url.Values{}
	q.Set("stockViewCategoryId", holdingsCategory)
	q.Set("_", fmt.Sprint(c.epoch()))
	resp, err := c.Do(ctx, http.MethodGet, holdingsViewPath+"?"+q.Encode(), s, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot get holdings view: %w", err)
	}
	return resp.Body, nil
}

// HasDetail reports whether a holding's detail link points to a single
// holding detail page. Bundles have no such page.
func HasDetail(detailURL string) bool {
	return detailURL != "" && !strings.Contains(detailURL, "bundleId")
}

// Detail returns the HTML of a holding's detail page.
func (c *Client) Detail(ctx context.Context, s Session, detailURL string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, detailURL, s, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot get holding detail: %w", err)
	}
	return resp.Body, nil
}

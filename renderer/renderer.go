// Package renderer turns snapshots and run results into markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/pipeline"
	"github.com/shopspring/decimal"
)

// DateLayout is the layout of the snapshot time in reports.
const DateLayout = "2006-01-02 15:04:05"

var headers = map[string]string{
	"name":             "Name",
	"shares":           "Shares",
	"fsrs":             "FSRs",
	"purchaseValue":    "Purchase Value",
	"currentValue":     "Current Value",
	"pnlValue":         "P&L",
	"avgPurchasePrice": "Avg. Purchase Price",
	"delayedPrice":     "Delayed Price",
	"pnlPercent":       "P&L %",
}

// cell escapes a value for a table cell. Absent values are empty.
func cell(v *string) string {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(*v, "|", `\|`)
}

// row writes one table row.
func row(w io.Writer, cells []string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

// SnapshotMarkdown renders a snapshot as a table, one row per holding, in the
// snapshot order, followed by the totals of the purchase and current values.
func SnapshotMarkdown(s holdings.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Account %s\n\n", s.AccountID)
	fmt.Fprintf(&b, "Snapshot of %s, %d holding(s).\n\n", s.Time.Format(DateLayout), len(s.Holdings))
	if len(s.Holdings) == 0 {
		return b.String()
	}

	titles := make([]string, len(holdings.Columns))
	align := make([]string, len(holdings.Columns))
	for i, col := range holdings.Columns {
		titles[i] = headers[col]
		align[i] = "---:"
	}
	align[0] = ":---"
	row(&b, titles)
	row(&b, align)

	cells := make([]string, len(holdings.Columns))
	for _, h := range s.Holdings {
		for i, col := range holdings.Columns {
			cells[i] = cell(h.Field(col))
		}
		row(&b, cells)
	}

	purchase, current := Totals(s.Holdings)
	for i := range cells {
		cells[i] = ""
	}
	cells[0] = "**Total**"
	cells[3] = purchase
	cells[4] = current
	row(&b, cells)
	return b.String()
}

// Totals sums the purchase and current values that can be parsed, rounded to
// two decimals. A total with no parseable value is empty.
//
// holdings.Amount drops signs, so values are summed as absolute amounts. This
// does not suit signed columns like the P&L.
func Totals(list []holdings.Holding) (purchase, current string) {
	sum := func(field func(holdings.Holding) *string) string {
		total, n := decimal.Zero, 0
		for _, h := range list {
			v := field(h)
			if v == nil {
				continue
			}
			d, err := holdings.Amount(*v)
			if err != nil {
				continue
			}
			total = total.Add(d)
			n++
		}
		if n == 0 {
			return ""
		}
		return total.StringFixed(2)
	}
	purchase = sum(func(h holdings.Holding) *string { return h.PurchaseValue })
	current = sum(func(h holdings.Holding) *string { return h.CurrentValue })
	return
}

// AccountsMarkdown renders the accounts and whether they can be used.
func AccountsMarkdown(accounts []pipeline.AccountStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Accounts\n\n")
	if len(accounts) == 0 {
		fmt.Fprintf(&b, "No account found.\n")
		return b.String()
	}
	row(&b, []string{"Account", "Currency", "Usable"})
	row(&b, []string{":---", ":---", ":---:"})
	for _, a := range accounts {
		usable := " "
		if a.CanUse {
			usable = "X"
		}
		row(&b, []string{a.ID, a.CurrencyID, usable})
	}
	return b.String()
}

// SummaryMarkdown renders the outcome of a run.
func SummaryMarkdown(s pipeline.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fetch\n\n")
	fmt.Fprintf(&b, "%d snapshot(s) written.\n\n", s.Written())
	if len(s.Results) == 0 {
		return b.String()
	}
	row(&b, []string{"Account", "Status", "Holdings", "Files"})
	row(&b, []string{":---", ":---", "---:", ":---"})
	for _, r := range s.Results {
		row(&b, []string{r.Account.ID, string(r.Status), fmt.Sprint(r.Holdings), strings.Join(r.Files, "<br>")})
	}
	return b.String()
}

package holdings

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// amountCurrencies are the currencies whose symbols may prefix an amount on
// the portal.
var amountCurrencies = []string{money.ZAR, money.USD, money.EUR, money.GBP, money.AUD}

var amountReplacer = newAmountReplacer(amountCurrencies...)

// newAmountReplacer builds a replacer removing the currency graphemes of codes,
// parentheses, sign glyphs and thousands separators.
func newAmountReplacer(codes ...string) *strings.Replacer {
	var oldnew []string
	for _, code := range codes {
		if c := money.GetCurrency(code); c != nil && c.Grapheme != "" {
			oldnew = append(oldnew, c.Grapheme, "")
		}
	}
	for _, g := range []string{"(", ")", "+", "-", "−", ","} {
		oldnew = append(oldnew, g, "")
	}
	return strings.NewReplacer(oldnew...)
}

// Amount parses a rendered amount like "R 1,234.56" or "(+$12.00)".
//
// Signs are stripped: the result is never negative.
func Amount(s string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(s)
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// SplitPnl splits a profit/loss cell like "R 123.45 (+4.56%)" into its value
// ("R 123.45") and percent ("4.56%") parts.
//
// When the cell has no parenthesized percent, the value is computed as
// current - purchase rounded to two decimals, and the percent is absent.
// The value is absent too if either amount cannot be parsed.
func SplitPnl(cell, purchase, current *string) (value, percent *string) {
	if cell != nil {
		if i := strings.LastIndex(*cell, "("); i >= 0 {
			v := strings.TrimSpace(strings.ReplaceAll((*cell)[:i], "+", ""))
			p := strings.TrimSpace(strings.NewReplacer("+", "", ")", "").Replace((*cell)[i+1:]))
			return &v, &p
		}
	}
	if purchase == nil || current == nil {
		return nil, nil
	}
	pv, err := Amount(*purchase)
	if err != nil {
		return nil, nil
	}
	cv, err := Amount(*current)
	if err != nil {
		return nil, nil
	}
	return Str(cv.Sub(pv).StringFixed(2)), nil
}

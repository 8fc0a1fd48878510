package scrape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/etnz/holdings"
)

// ExtractionError is returned when a required field is missing from a row.
type ExtractionError struct {
	Page  string // "accounts", "value", "share" or "detail"
	Row   int    // zero based
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s page: row %d: missing required field %q", e.Page, e.Row, e.Field)
}

// parse reads an HTML document.
func parse(page []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("cannot parse html: %w", err)
	}
	return doc, nil
}

// lookup returns the trimmed value of f in sel, or nil when the selector
// matches nothing or the attribute is missing.
func lookup(sel *goquery.Selection, f Field) *string {
	if f.Selector != "" {
		sel = sel.Find(f.Selector)
	}
	if sel.Length() == 0 {
		return nil
	}
	sel = sel.First()
	var v string
	if f.Attr != "" {
		a, ok := sel.Attr(f.Attr)
		if !ok {
			return nil
		}
		v = a
	} else {
		v = sel.Text()
	}
	v = strings.TrimSpace(v)
	return &v
}

// row extracts fields from one row, recording the first missing required
// field.
type row struct {
	sel  *goquery.Selection
	page string
	idx  int
	err  error
}

func (r *row) get(name string, f Field) *string {
	v := lookup(r.sel, f)
	if f.Required && (v == nil || *v == "") && r.err == nil {
		r.err = &ExtractionError{Page: r.page, Row: r.idx, Field: name}
	}
	return v
}

func (r *row) text(name string, f Field) string {
	if v := r.get(name, f); v != nil {
		return *v
	}
	return ""
}

// Accounts extracts the accounts of the account overview page, in document
// order.
func Accounts(page []byte, t AccountTemplate) ([]holdings.Account, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}
	var accounts []holdings.Account
	var rowErr error
	doc.Find(t.Rows).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		r := row{sel: sel, page: "accounts", idx: i}
		a := holdings.Account{
			ID:         r.text("id", t.ID),
			CurrencyID: r.text("currencyId", t.CurrencyID),
		}
		if rowErr = r.err; rowErr != nil {
			return false
		}
		accounts = append(accounts, a)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return accounts, nil
}

// ValueView extracts the holdings of the value view, in document order.
func ValueView(page []byte, t ValueTemplate) ([]holdings.ValueView, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}
	var views []holdings.ValueView
	var rowErr error
	doc.Find(t.Rows).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		r := row{sel: sel, page: "value", idx: i}
		v := holdings.ValueView{
			Name:                 r.text("name", t.Name),
			Shares:               r.get("shares", t.Shares),
			Fsrs:                 r.get("fsrs", t.Fsrs),
			PurchaseValue:        r.get("purchaseValue", t.PurchaseValue),
			CurrentValue:         r.get("currentValue", t.CurrentValue),
			PnlValue:             r.get("pnlValue", t.PnlValue),
			ManagedPurchaseValue: r.get("managedPurchaseValue", t.ManagedPurchaseValue),
			DetailURL:            r.text("detailUrl", t.DetailURL),
		}
		if rowErr = r.err; rowErr != nil {
			return false
		}
		views = append(views, v)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return views, nil
}

// ShareView extracts the holdings of the share view, in document order.
func ShareView(page []byte, t ShareTemplate) ([]holdings.ShareView, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}
	var views []holdings.ShareView
	var rowErr error
	doc.Find(t.Rows).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		r := row{sel: sel, page: "share", idx: i}
		v := holdings.ShareView{
			Name:             r.text("name", t.Name),
			Shares:           r.get("shares", t.Shares),
			Fsrs:             r.get("fsrs", t.Fsrs),
			AvgPurchasePrice: r.get("avgPurchasePrice", t.AvgPurchasePrice),
			DelayedPrice:     r.get("delayedPrice", t.DelayedPrice),
			PnlPercent:       r.get("pnlPercent", t.PnlPercent),
		}
		if rowErr = r.err; rowErr != nil {
			return false
		}
		views = append(views, v)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return views, nil
}

// Detail extracts the fields of a holding detail page.
func Detail(page []byte, t DetailTemplate) (*holdings.Detail, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}
	r := row{sel: doc.Selection, page: "detail"}
	d := &holdings.Detail{
		Shares:           r.get("shares", t.Shares),
		Fsrs:             r.get("fsrs", t.Fsrs),
		AvgPurchasePrice: r.get("avgPurchasePrice", t.AvgPurchasePrice),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

package holdings

import "fmt"

// Strategy selects how the value and share views are merged.
type Strategy string

const (
	// Rotate distinguishes DIY from managed holdings and rotates the
	// managed holdings' columns. It is the default.
	Rotate Strategy = "rotate"
	// Overlay copies the share view over the value view, without rotation.
	Overlay Strategy = "overlay"
)

// ParseStrategy returns the Strategy named s; "" means Rotate.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Rotate:
		return Rotate, nil
	case Overlay:
		return Overlay, nil
	}
	return "", fmt.Errorf("unknown strategy %q, expecting %q or %q", s, Rotate, Overlay)
}

// Merge reconciles values and shares according to the strategy.
func (s Strategy) Merge(values []ValueView, shares []ShareView) []Holding {
	if s == Overlay {
		return OverlayViews(values, shares)
	}
	return Reconcile(values, shares)
}

// indexShares maps share views by exact name. The first one wins on duplicates.
func indexShares(shares []ShareView) map[string]ShareView {
	m := make(map[string]ShareView, len(shares))
	for _, s := range shares {
		if _, exists := m[s.Name]; !exists {
			m[s.Name] = s
		}
	}
	return m
}

// Reconcile returns one Holding per value view, in the same order.
//
// A value view with a share view of the exact same name is a DIY holding: its
// amounts are kept verbatim, the managed purchase value is discarded and the
// share view provides the prices and the pnl percent.
//
// A value view without a share view is a managed holding. The portal renders
// those one column off, so the cells are rotated back:
//
//	purchaseValue <- managedPurchaseValue
//	currentValue  <- purchaseValue
//	pnlValue      <- currentValue
//	pnlPercent    <- pnlValue
//
// The rotation matches what the portal rendered at the time of writing and
// should be checked against live data when the markup changes.
func Reconcile(values []ValueView, shares []ShareView) []Holding {
	byName := indexShares(shares)
	out := make([]Holding, 0, len(values))
	for _, v := range values {
		h := Holding{
			Name:   v.Name,
			Shares: v.Shares,
			Fsrs:   v.Fsrs,
		}
		if s, diy := byName[v.Name]; diy {
			h.PurchaseValue = v.PurchaseValue
			h.CurrentValue = v.CurrentValue
			h.PnlValue = v.PnlValue
			h.AvgPurchasePrice = s.AvgPurchasePrice
			h.DelayedPrice = s.DelayedPrice
			h.PnlPercent = s.PnlPercent
			if h.Shares == nil {
				h.Shares = s.Shares
			}
			if h.Fsrs == nil {
				h.Fsrs = s.Fsrs
			}
		} else {
			h.PurchaseValue = v.ManagedPurchaseValue
			h.CurrentValue = v.PurchaseValue
			h.PnlValue = v.CurrentValue
			h.PnlPercent = v.PnlValue
		}
		enrich(&h, v.Detail)
		out = append(out, h)
	}
	return out
}

// OverlayViews returns one Holding per value view, in the same order, with no
// managed/DIY distinction.
//
// The pnl cell is split by SplitPnl, then the fields of a share view with the
// same name overwrite the ones it renders.
func OverlayViews(values []ValueView, shares []ShareView) []Holding {
	byName := indexShares(shares)
	out := make([]Holding, 0, len(values))
	for _, v := range values {
		h := Holding{
			Name:          v.Name,
			Shares:        v.Shares,
			Fsrs:          v.Fsrs,
			PurchaseValue: v.PurchaseValue,
			CurrentValue:  v.CurrentValue,
		}
		h.PnlValue, h.PnlPercent = SplitPnl(v.PnlValue, v.PurchaseValue, v.CurrentValue)
		if s, ok := byName[v.Name]; ok {
			overwrite(&h.Shares, s.Shares)
			overwrite(&h.Fsrs, s.Fsrs)
			overwrite(&h.AvgPurchasePrice, s.AvgPurchasePrice)
			overwrite(&h.DelayedPrice, s.DelayedPrice)
			overwrite(&h.PnlPercent, s.PnlPercent)
		}
		enrich(&h, v.Detail)
		out = append(out, h)
	}
	return out
}

func overwrite(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}

// enrich fills the fields still missing in h from the detail sub-page.
func enrich(h *Holding, d *Detail) {
	if d == nil {
		return
	}
	if h.Shares == nil {
		h.Shares = d.Shares
	}
	if h.Fsrs == nil {
		h.Fsrs = d.Fsrs
	}
	if h.AvgPurchasePrice == nil {
		h.AvgPurchasePrice = d.AvgPurchasePrice
	}
}

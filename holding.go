package holdings

import "encoding/json"

// Account is a tradable sub-account as listed on the account overview page.
type Account struct {
	ID         string `json:"id"`
	CurrencyID string `json:"currencyId"`
}

// Detail holds the extra fields found on a holding's detail sub-page.
type Detail struct {
	Shares           *string
	Fsrs             *string
	AvgPurchasePrice *string
}

// ValueView is a holding as rendered by the "value" view of the holdings page.
//
// For broker-managed holdings the portal shifts the columns: the cells are
// stored here as rendered, and Reconcile applies the rotation.
type ValueView struct {
	Name                 string
	Shares               *string
	Fsrs                 *string
	PurchaseValue        *string
	CurrentValue         *string
	PnlValue             *string
	ManagedPurchaseValue *string // only rendered for managed holdings

	DetailURL string  // link to the detail sub-page, possibly empty
	Detail    *Detail // filled by the optional detail enrichment
}

// ShareView is a holding as rendered by the "share" view of the holdings page.
type ShareView struct {
	Name             string
	Shares           *string
	Fsrs             *string
	AvgPurchasePrice *string
	DelayedPrice     *string
	PnlPercent       *string
}

// Holding is the reconciled record written into snapshots.
//
// All fields but Name are optional: nil is persisted as a JSON null and as an
// empty CSV cell.
type Holding struct {
	Name             string  `json:"name"`
	Shares           *string `json:"shares"`
	Fsrs             *string `json:"fsrs"`
	PurchaseValue    *string `json:"purchaseValue"`
	CurrentValue     *string `json:"currentValue"`
	PnlValue         *string `json:"pnlValue"`
	AvgPurchasePrice *string `json:"avgPurchasePrice"`
	DelayedPrice     *string `json:"delayedPrice"`
	PnlPercent       *string `json:"pnlPercent"`
}

// Columns is the persisted field order, shared by the JSON and CSV encoders.
var Columns = []string{
	"name",
	"shares",
	"fsrs",
	"purchaseValue",
	"currentValue",
	"pnlValue",
	"avgPurchasePrice",
	"delayedPrice",
	"pnlPercent",
}

// Field returns the value of the column named col, nil if absent or unknown.
func (h Holding) Field(col string) *string {
	switch col {
	case "name":
		return &h.Name
	case "shares":
		return h.Shares
	case "fsrs":
		return h.Fsrs
	case "purchaseValue":
		return h.PurchaseValue
	case "currentValue":
		return h.CurrentValue
	case "pnlValue":
		return h.PnlValue
	case "avgPurchasePrice":
		return h.AvgPurchasePrice
	case "delayedPrice":
		return h.DelayedPrice
	case "pnlPercent":
		return h.PnlPercent
	}
	return nil
}

// MarshalJSON writes all the Columns, in order, nulls included.
func (h Holding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("name", h.Name)
	for _, col := range Columns[1:] {
		w.Append(col, h.Field(col))
	}
	return w.MarshalJSON()
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (h *Holding) UnmarshalJSON(data []byte) error {
	type plain Holding // no methods, avoids recursion
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*h = Holding(p)
	return nil
}

// Str returns a pointer to s, for optional fields.
func Str(s string) *string { return &s }

// valueOf returns the optional value, or "".
func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package scrape extracts accounts and holdings from the portal HTML pages.
//
// What to extract, and where, is described by a Schema: a set of CSS
// selectors per page. Several holdings columns are only identifiable by
// their position (nth-child), so a markup change on the portal is fixed by
// editing the Schema, usually from a file (see LoadSchema), not the code.
package scrape

import (
	"fmt"

	"github.com/spf13/viper"
)

// Field locates one value inside a row.
type Field struct {
	// Selector is a CSS selector relative to the row. Empty means the row
	// itself.
	Selector string `mapstructure:"selector"`
	// Attr reads that attribute instead of the text content.
	Attr string `mapstructure:"attr"`
	// Required fields fail the extraction when missing, others are absent.
	Required bool `mapstructure:"required"`
}

// AccountTemplate locates the account tabs of the account overview page.
type AccountTemplate struct {
	Rows       string `mapstructure:"rows"`
	ID         Field  `mapstructure:"id"`
	CurrencyID Field  `mapstructure:"currency_id"`
}

// ValueTemplate locates the holdings of the value view.
type ValueTemplate struct {
	Rows                 string `mapstructure:"rows"`
	Name                 Field  `mapstructure:"name"`
	Shares               Field  `mapstructure:"shares"`
	Fsrs                 Field  `mapstructure:"fsrs"`
	PurchaseValue        Field  `mapstructure:"purchase_value"`
	CurrentValue         Field  `mapstructure:"current_value"`
	PnlValue             Field  `mapstructure:"pnl_value"`
	ManagedPurchaseValue Field  `mapstructure:"managed_purchase_value"`
	DetailURL            Field  `mapstructure:"detail_url"`
}

// ShareTemplate locates the holdings of the share view.
type ShareTemplate struct {
	Rows             string `mapstructure:"rows"`
	Name             Field  `mapstructure:"name"`
	Shares           Field  `mapstructure:"shares"`
	Fsrs             Field  `mapstructure:"fsrs"`
	AvgPurchasePrice Field  `mapstructure:"avg_purchase_price"`
	DelayedPrice     Field  `mapstructure:"delayed_price"`
	PnlPercent       Field  `mapstructure:"pnl_percent"`
}

// DetailTemplate locates the fields of a holding detail page. Selectors are
// relative to the whole page.
type DetailTemplate struct {
	Shares           Field `mapstructure:"shares"`
	Fsrs             Field `mapstructure:"fsrs"`
	AvgPurchasePrice Field `mapstructure:"avg_purchase_price"`
}

// Schema describes every page scraped during a run.
type Schema struct {
	Accounts AccountTemplate `mapstructure:"accounts"`
	Value    ValueTemplate   `mapstructure:"value"`
	Share    ShareTemplate   `mapstructure:"share"`
	Detail   DetailTemplate  `mapstructure:"detail"`
}

// DefaultSchema returns the selectors matching the portal markup.
//
// In a holding row, the first cell holds the name, and the numeric cells
// follow in a fixed order. Managed holdings render one extra trailing cell.
func DefaultSchema() Schema {
	return Schema{
		Accounts: AccountTemplate{
			Rows:       "#selector-tab",
			ID:         Field{Attr: "data-id", Required: true},
			CurrencyID: Field{Attr: "data-tradingcurrencyid"},
		},
		Value: ValueTemplate{
			Rows:                 "#value-view div.holding-table-body div.holding-inner-container",
			Name:                 Field{Selector: ".equity-image-as-text", Required: true},
			Shares:               Field{Selector: "div.holding-details > span:nth-child(1)"},
			Fsrs:                 Field{Selector: "div.holding-details > span:nth-child(2)"},
			PurchaseValue:        Field{Selector: "div.holding-cells > div:nth-child(2)"},
			CurrentValue:         Field{Selector: "div.holding-cells > div:nth-child(3)"},
			PnlValue:             Field{Selector: "div.holding-cells > div:nth-child(4)"},
			ManagedPurchaseValue: Field{Selector: "div.holding-cells > div:nth-child(5)"},
			// the HTML parser lower-cases attribute names (data-detailViewUrl).
			DetailURL: Field{Selector: ".detail-dropdown", Attr: "data-detailviewurl"},
		},
		Share: ShareTemplate{
			Rows:             "#share-view div.holding-table-body div.holding-inner-container",
			Name:             Field{Selector: ".equity-image-as-text", Required: true},
			Shares:           Field{Selector: "div.holding-details > span:nth-child(1)"},
			Fsrs:             Field{Selector: "div.holding-details > span:nth-child(2)"},
			AvgPurchasePrice: Field{Selector: "div.holding-cells > div:nth-child(2)"},
			DelayedPrice:     Field{Selector: "div.holding-cells > div:nth-child(3)"},
			PnlPercent:       Field{Selector: "div.holding-cells > div:nth-child(4)"},
		},
		Detail: DetailTemplate{
			Shares:           Field{Selector: "div.content-box > div:nth-child(2) > div:nth-child(2)"},
			Fsrs:             Field{Selector: "div.content-box > div:nth-child(3) > div:nth-child(2)"},
			AvgPurchasePrice: Field{Selector: "div.content-box > div:nth-child(5) > div:nth-child(2)"},
		},
	}
}

// LoadSchema reads a schema file (YAML, JSON or TOML, by extension) and
// overlays it onto DefaultSchema: only the keys present in the file change.
// An empty path returns DefaultSchema.
func LoadSchema(path string) (Schema, error) {
	schema := DefaultSchema()
	if path == "" {
		return schema, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	if err := v.Unmarshal(&schema); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema file: %w", err)
	}
	return schema, nil
}

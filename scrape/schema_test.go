package scrape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		got, err := LoadSchema("")
		require.NoError(t, err)
		assert.Equal(t, DefaultSchema(), got)
	})

	t.Run("partial override", func(t *testing.T) {
		got, err := LoadSchema(filepath.Join("testdata", "schema.yaml"))
		require.NoError(t, err)

		def := DefaultSchema()
		assert.Equal(t, ".purchase-value-cell", got.Value.PurchaseValue.Selector)
		assert.Equal(t, Field{Selector: "a.more", Attr: "href"}, got.Value.DetailURL)
		assert.Equal(t, "#shares div.row", got.Share.Rows)

		// untouched keys keep their defaults.
		assert.Equal(t, def.Value.Rows, got.Value.Rows)
		assert.Equal(t, def.Value.Name, got.Value.Name)
		assert.Equal(t, def.Accounts, got.Accounts)
		assert.Equal(t, def.Detail, got.Detail)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"accounts":{"rows":".tab"}}`), 0644))

		got, err := LoadSchema(path)
		require.NoError(t, err)
		assert.Equal(t, ".tab", got.Accounts.Rows)
		assert.Equal(t, DefaultSchema().Accounts.ID, got.Accounts.ID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestDefaultSchema_Overrides(t *testing.T) {
	schema := DefaultSchema()
	schema.Accounts.Rows = ".account"

	accounts, err := Accounts([]byte(`<ul><li class="account" data-id="7" data-tradingcurrencyid="1"></li></ul>`), schema.Accounts)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "7", accounts[0].ID)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
devices:
  - name: PS5-1
    category: CONSOLE
  - name: Pool-1
    category: BILLIARD
products:
  - code: COLA
    name: Cola
    unit_price: 40
    stock: 10
rate_profiles:
  - code: console-weekday
    name: Console Weekday
    category: CONSOLE
    tiers:
      - {min: 0, max: 40, price: 100}
      - {min: 41, max: 70, price: 150}
    overflow:
      block_minutes: 15
      block_price: 50
  - code: pool-open
    name: Pool Open
    category: BILLIARD
    tiers:
      - {min: 0, price: 90}
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCatalogFile(t *testing.T) {
	holder, err := LoadCatalogFile(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	cfg := holder.Get()
	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "BILLIARD", cfg.Devices[1].Category)

	require.Len(t, cfg.Products, 1)
	assert.Equal(t, int64(40), cfg.Products[0].UnitPrice)

	require.Len(t, cfg.RateProfiles, 2)
	console := cfg.RateProfiles[0]
	require.Len(t, console.Tiers, 2)
	require.NotNil(t, console.Tiers[1].Max)
	assert.Equal(t, 70, *console.Tiers[1].Max)
	require.NotNil(t, console.Overflow)
	assert.Equal(t, 15, console.Overflow.BlockMinutes)
	assert.Equal(t, int64(50), console.Overflow.BlockPrice)

	pool := cfg.RateProfiles[1]
	assert.Nil(t, pool.Tiers[0].Max)
	assert.Nil(t, pool.Overflow)
}

func TestLoadCatalogFileRejectsDuplicateProfiles(t *testing.T) {
	body := `
rate_profiles:
  - code: dup
    category: CONSOLE
    tiers: [{min: 0, price: 10}]
  - code: dup
    category: CONSOLE
    tiers: [{min: 0, price: 20}]
`
	_, err := LoadCatalogFile(writeCatalog(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate code")
}

func TestDefaultCatalogIsValid(t *testing.T) {
	assert.NoError(t, validateCatalog(DefaultCatalogConfig()))
}

func TestCatalogHolderNotifiesListeners(t *testing.T) {
	holder, err := LoadCatalogFile(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	var got []CatalogConfig
	holder.OnChange(func(cfg CatalogConfig) { got = append(got, cfg) })
	holder.notify(DefaultCatalogConfig())

	require.Len(t, got, 1)
	assert.Len(t, got[0].Devices, 4)
}

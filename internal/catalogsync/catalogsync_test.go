package catalogsync_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/lounge/internal/catalogsync"
	"github.com/smallbiznis/lounge/internal/config"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	devicerepo "github.com/smallbiznis/lounge/internal/device/repository"
	deviceservice "github.com/smallbiznis/lounge/internal/device/service"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	productrepo "github.com/smallbiznis/lounge/internal/product/repository"
	productservice "github.com/smallbiznis/lounge/internal/product/service"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	ratecatalogrepo "github.com/smallbiznis/lounge/internal/ratecatalog/repository"
	ratecatalogservice "github.com/smallbiznis/lounge/internal/ratecatalog/service"
	"github.com/smallbiznis/lounge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type services struct {
	syncer   *catalogsync.Syncer
	devices  devicedomain.Service
	products productdomain.Service
	rates    ratecatalogdomain.Service
}

func newServices(t *testing.T) services {
	t.Helper()

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zap.NewNop()

	s := services{
		devices:  deviceservice.New(deviceservice.Params{DB: db, Log: log, GenID: node, Repo: devicerepo.Provide()}),
		products: productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Repo: productrepo.Provide()}),
		rates:    ratecatalogservice.New(ratecatalogservice.Params{DB: db, Log: log, GenID: node, Repo: ratecatalogrepo.Provide()}),
	}
	s.syncer = catalogsync.New(catalogsync.Params{Log: log, Devices: s.devices, Products: s.products, Rates: s.rates})
	return s
}

func TestSyncDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	catalog := config.DefaultCatalogConfig()

	require.NoError(t, s.syncer.Sync(ctx, catalog))
	require.NoError(t, s.syncer.Sync(ctx, catalog))

	devices, err := s.devices.List(ctx, devicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, devices, len(catalog.Devices))

	products, err := s.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(catalog.Products))

	profiles, err := s.rates.ListByCategory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, profiles, len(catalog.RateProfiles))
}

func TestSyncRejectsBrokenTierTableWithoutWriting(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	upper := 30
	catalog := config.CatalogConfig{
		Devices: []config.DeviceSpec{{Name: "PS5-9", Category: "CONSOLE"}},
		RateProfiles: []config.RateProfileSpec{{
			Code:     "gappy",
			Category: "CONSOLE",
			Tiers: []config.TierSpec{
				{Min: 0, Max: &upper, Price: 100},
				{Min: 45, Price: 150},
			},
		}},
	}

	err := s.syncer.Sync(ctx, catalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gappy")

	devices, err := s.devices.List(ctx, devicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	err := catalogsync.Validate(config.CatalogConfig{
		Devices: []config.DeviceSpec{{Name: "Dartboard", Category: "DARTS"}},
	})
	assert.ErrorIs(t, err, devicedomain.ErrInvalidCategory)
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	devicerepo "github.com/smallbiznis/lounge/internal/device/repository"
	deviceservice "github.com/smallbiznis/lounge/internal/device/service"
	orderrepo "github.com/smallbiznis/lounge/internal/order/repository"
	orderservice "github.com/smallbiznis/lounge/internal/order/service"
	paymentrepo "github.com/smallbiznis/lounge/internal/payment/repository"
	paymentservice "github.com/smallbiznis/lounge/internal/payment/service"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	productrepo "github.com/smallbiznis/lounge/internal/product/repository"
	productservice "github.com/smallbiznis/lounge/internal/product/service"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	ratecatalogrepo "github.com/smallbiznis/lounge/internal/ratecatalog/repository"
	ratecatalogservice "github.com/smallbiznis/lounge/internal/ratecatalog/service"
	segmentrepo "github.com/smallbiznis/lounge/internal/segment/repository"
	segmentservice "github.com/smallbiznis/lounge/internal/segment/service"
	"github.com/smallbiznis/lounge/internal/session/domain"
	"github.com/smallbiznis/lounge/internal/session/repository"
	"github.com/smallbiznis/lounge/internal/session/service"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	settlementservice "github.com/smallbiznis/lounge/internal/settlement/service"
	"github.com/smallbiznis/lounge/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type harness struct {
	db          *gorm.DB
	clock       *clock.FakeClock
	sessions    domain.Service
	devices     devicedomain.Service
	products    productdomain.Service
	rates       ratecatalogdomain.Service
	settlements settlementdomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(t0)
	log := zap.NewNop()

	sessionRepo := repository.Provide()
	deviceRepo := devicerepo.Provide()
	productRepo := productrepo.Provide()

	devices := deviceservice.New(deviceservice.Params{DB: db, Log: log, GenID: node, Repo: deviceRepo, Clock: clk})
	products := productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Repo: productRepo, Clock: clk})
	rates := ratecatalogservice.New(ratecatalogservice.Params{DB: db, Log: log, GenID: node, Repo: ratecatalogrepo.Provide(), Clock: clk})
	segments := segmentservice.New(segmentservice.Params{DB: db, Log: log, GenID: node, Repo: segmentrepo.Provide()})
	orders := orderservice.New(orderservice.Params{DB: db, Log: log, GenID: node, Repo: orderrepo.Provide(), ProductRepo: productRepo, Clock: clk})
	payments := paymentservice.New(paymentservice.Params{DB: db, Log: log, GenID: node, Repo: paymentrepo.Provide(), Clock: clk})
	settlements := settlementservice.New(settlementservice.Params{DB: db, Log: log, SessionRepo: sessionRepo, PaymentSvc: payments})

	sessions := service.New(service.Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Repo:          sessionRepo,
		DeviceRepo:    deviceRepo,
		RateCatalog:   rates,
		SegmentSvc:    segments,
		OrderSvc:      orders,
		PaymentSvc:    payments,
		SettlementSvc: settlements,
		Clock:         clk,
	})

	return &harness{
		db:          db,
		clock:       clk,
		sessions:    sessions,
		devices:     devices,
		products:    products,
		rates:       rates,
		settlements: settlements,
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// seedConsole creates a console, the standard profile (100 up to 30 min, 150 up to 60,
// then 150 plus 50 x (floor((d-60)/15)+1) past 60) and an open-ended premium profile.
func (h *harness) seedConsole(t *testing.T, name string) (deviceID, standardID, premiumID string) {
	t.Helper()
	ctx := context.Background()

	device, err := h.devices.Create(ctx, devicedomain.CreateRequest{Name: name, Category: "CONSOLE"})
	require.NoError(t, err)

	standard, err := h.rates.Upsert(ctx, ratecatalogdomain.UpsertRequest{
		Code:     "console-standard",
		Name:     "Standard",
		Category: "CONSOLE",
		Tiers: []ratecatalogdomain.TierInput{
			{Min: 0, Max: intPtr(30), Price: 100},
			{Min: 31, Max: intPtr(60), Price: 150},
		},
		OverflowBlockMinutes: intPtr(15),
		OverflowBlockPrice:   int64Ptr(50),
	})
	require.NoError(t, err)

	premium, err := h.rates.Upsert(ctx, ratecatalogdomain.UpsertRequest{
		Code:     "console-premium",
		Name:     "Premium",
		Category: "CONSOLE",
		Tiers: []ratecatalogdomain.TierInput{
			{Min: 0, Max: intPtr(30), Price: 200},
			{Min: 31, Price: 300},
		},
	})
	require.NoError(t, err)

	return device.ID, standard.ID, premium.ID
}

func (h *harness) seedProduct(t *testing.T, code string, price, stock int64) string {
	t.Helper()
	p, err := h.products.Create(context.Background(), productdomain.CreateRequest{
		Code: code, Name: code, UnitPrice: price, Stock: stock,
	})
	require.NoError(t, err)
	return p.ID
}

func (h *harness) start(t *testing.T, deviceID, profileID string) *domain.Bill {
	t.Helper()
	bill, err := h.sessions.Start(context.Background(), domain.StartRequest{DeviceID: deviceID, RateProfileID: profileID})
	require.NoError(t, err)
	return bill
}

func (h *harness) deviceStatus(t *testing.T, deviceID string) devicedomain.Status {
	t.Helper()
	d, err := h.devices.Get(context.Background(), deviceID)
	require.NoError(t, err)
	return d.Status
}

func mustParse(t *testing.T, id string) snowflake.ID {
	t.Helper()
	parsed, err := snowflake.ParseString(id)
	require.NoError(t, err)
	return parsed
}

func ratecatalogUpsertBilliard() ratecatalogdomain.UpsertRequest {
	return ratecatalogdomain.UpsertRequest{
		Code:     "billiard-hourly",
		Name:     "Billiard",
		Category: "BILLIARD",
		Tiers:    []ratecatalogdomain.TierInput{{Min: 0, Price: 200}},
	}
}

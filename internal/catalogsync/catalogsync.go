// Package catalogsync applies catalog.yml to the database: devices by name,
// products by code and rate profiles by code. It runs on startup and again
// whenever the watched file changes.
package catalogsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/lounge/internal/config"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	ratecatalogservice "github.com/smallbiznis/lounge/internal/ratecatalog/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reloadTimeout = 30 * time.Second

type Params struct {
	fx.In

	Log      *zap.Logger
	Devices  devicedomain.Service
	Products productdomain.Service
	Rates    ratecatalogdomain.Service
}

type Syncer struct {
	log      *zap.Logger
	devices  devicedomain.Service
	products productdomain.Service
	rates    ratecatalogdomain.Service
}

func New(p Params) *Syncer {
	return &Syncer{
		log:      p.Log.Named("catalogsync"),
		devices:  p.Devices,
		products: p.Products,
		rates:    p.Rates,
	}
}

// Validate checks every rate profile's tier table before anything is written.
func Validate(catalog config.CatalogConfig) error {
	for _, rp := range catalog.RateProfiles {
		category := devicedomain.Category(strings.ToUpper(strings.TrimSpace(rp.Category)))
		if !category.Valid() {
			return fmt.Errorf("rate profile %s: %w", rp.Code, ratecatalogdomain.ErrInvalidCategory)
		}
		req := profileRequest(rp)
		table := ratecatalogservice.TableFromInput(req.Tiers, req.OverflowBlockMinutes, req.OverflowBlockPrice)
		if err := table.Validate(); err != nil {
			return fmt.Errorf("rate profile %s: %w", rp.Code, err)
		}
	}
	for _, d := range catalog.Devices {
		category := devicedomain.Category(strings.ToUpper(strings.TrimSpace(d.Category)))
		if !category.Valid() {
			return fmt.Errorf("device %s: %w", d.Name, devicedomain.ErrInvalidCategory)
		}
	}
	return nil
}

// Sync applies the catalog. Nothing is written when validation fails.
func (s *Syncer) Sync(ctx context.Context, catalog config.CatalogConfig) error {
	if err := Validate(catalog); err != nil {
		return err
	}

	for _, rp := range catalog.RateProfiles {
		if _, err := s.rates.Upsert(ctx, profileRequest(rp)); err != nil {
			return fmt.Errorf("upsert rate profile %s: %w", rp.Code, err)
		}
	}
	for _, d := range catalog.Devices {
		category := devicedomain.Category(strings.ToUpper(strings.TrimSpace(d.Category)))
		if _, err := s.devices.EnsureByName(ctx, d.Name, category); err != nil {
			return fmt.Errorf("ensure device %s: %w", d.Name, err)
		}
	}
	for _, p := range catalog.Products {
		if _, err := s.products.EnsureByCode(ctx, productdomain.CreateRequest{
			Code:      p.Code,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Stock:     p.Stock,
		}); err != nil {
			return fmt.Errorf("ensure product %s: %w", p.Code, err)
		}
	}

	s.log.Info("catalog synced",
		zap.Int("devices", len(catalog.Devices)),
		zap.Int("products", len(catalog.Products)),
		zap.Int("rate_profiles", len(catalog.RateProfiles)),
	)
	return nil
}

func profileRequest(rp config.RateProfileSpec) ratecatalogdomain.UpsertRequest {
	req := ratecatalogdomain.UpsertRequest{
		Code:     rp.Code,
		Name:     rp.Name,
		Category: rp.Category,
		Tiers:    make([]ratecatalogdomain.TierInput, 0, len(rp.Tiers)),
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = rp.Code
	}
	for _, t := range rp.Tiers {
		req.Tiers = append(req.Tiers, ratecatalogdomain.TierInput{Min: t.Min, Max: t.Max, Price: t.Price})
	}
	if rp.Overflow != nil {
		minutes := rp.Overflow.BlockMinutes
		price := rp.Overflow.BlockPrice
		req.OverflowBlockMinutes = &minutes
		req.OverflowBlockPrice = &price
	}
	return req
}

func register(lc fx.Lifecycle, holder *config.CatalogHolder, syncer *Syncer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return syncer.Sync(ctx, holder.Get())
		},
	})

	holder.OnChange(func(catalog config.CatalogConfig) {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := syncer.Sync(ctx, catalog); err != nil {
			// the previous rows stay in place
			syncer.log.Error("catalog reload not applied", zap.Error(err))
		}
	})
}

var Module = fx.Module("catalogsync",
	fx.Provide(New),
	fx.Invoke(register),
)

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CatalogConfig is the reference data staff maintain in catalog.yml: the
// devices on the floor, the counter products and the rate profiles.
type CatalogConfig struct {
	Devices      []DeviceSpec      `mapstructure:"devices"`
	Products     []ProductSpec     `mapstructure:"products"`
	RateProfiles []RateProfileSpec `mapstructure:"rate_profiles"`
}

type DeviceSpec struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
}

type ProductSpec struct {
	Code      string `mapstructure:"code"`
	Name      string `mapstructure:"name"`
	UnitPrice int64  `mapstructure:"unit_price"`
	Stock     int64  `mapstructure:"stock"`
}

type RateProfileSpec struct {
	Code     string        `mapstructure:"code"`
	Name     string        `mapstructure:"name"`
	Category string        `mapstructure:"category"`
	Tiers    []TierSpec    `mapstructure:"tiers"`
	Overflow *OverflowSpec `mapstructure:"overflow"`
}

// TierSpec bounds are inclusive minutes. A nil Max marks the open-ended last tier.
type TierSpec struct {
	Min   int   `mapstructure:"min"`
	Max   *int  `mapstructure:"max"`
	Price int64 `mapstructure:"price"`
}

type OverflowSpec struct {
	BlockMinutes int   `mapstructure:"block_minutes"`
	BlockPrice   int64 `mapstructure:"block_price"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Devices: []DeviceSpec{
			{Name: "PS5-1", Category: "CONSOLE"},
			{Name: "PS5-2", Category: "CONSOLE"},
			{Name: "Billiard-1", Category: "BILLIARD"},
			{Name: "Carrom-1", Category: "BOARD_GAME"},
		},
		Products: []ProductSpec{
			{Code: "COLA", Name: "Cola", UnitPrice: 40, Stock: 48},
			{Code: "CHIPS", Name: "Chips", UnitPrice: 20, Stock: 60},
		},
		RateProfiles: []RateProfileSpec{
			{
				Code:     "console-standard",
				Name:     "Console Standard",
				Category: "CONSOLE",
				Tiers: []TierSpec{
					{Min: 0, Max: intPtr(40), Price: 100},
					{Min: 41, Max: intPtr(70), Price: 150},
				},
				Overflow: &OverflowSpec{BlockMinutes: 15, BlockPrice: 50},
			},
			{
				Code:     "billiard-standard",
				Name:     "Billiard Standard",
				Category: "BILLIARD",
				Tiers: []TierSpec{
					{Min: 0, Max: intPtr(30), Price: 120},
					{Min: 31, Max: intPtr(60), Price: 200},
				},
				Overflow: &OverflowSpec{BlockMinutes: 30, BlockPrice: 100},
			},
			{
				Code:     "carrom-standard",
				Name:     "Carrom Standard",
				Category: "BOARD_GAME",
				Tiers: []TierSpec{
					{Min: 0, Max: intPtr(60), Price: 60},
					{Min: 61, Max: nil, Price: 100},
				},
			},
		},
	}
}

func intPtr(v int) *int { return &v }

// CatalogHolder keeps the latest valid catalog and notifies subscribers when
// the file changes on disk.
type CatalogHolder struct {
	current atomic.Value // holds CatalogConfig
	source  string

	mu        sync.Mutex
	listeners []func(CatalogConfig)
}

func NewCatalogHolder(cfg Config) (*CatalogHolder, error) {
	v := viper.New()
	if cfg.Catalog.File != "" {
		v.SetConfigFile(cfg.Catalog.File)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/lounge")
		v.AddConfigPath(".")
	}
	return newCatalogHolder(v, cfg.Catalog.Watch)
}

// LoadCatalogFile reads a catalog from an explicit path without watching it.
func LoadCatalogFile(path string) (*CatalogHolder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return newCatalogHolder(v, false)
}

func newCatalogHolder(v *viper.Viper, watch bool) (*CatalogHolder, error) {
	holder := &CatalogHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		zap.L().Warn("catalog file not found, using built-in defaults")
		holder.current.Store(DefaultCatalogConfig())
		return holder, nil
	}

	cfg, err := decodeCatalog(v)
	if err != nil {
		return nil, err
	}
	holder.source = v.ConfigFileUsed()
	holder.current.Store(cfg)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeCatalog(v)
			if err != nil {
				zap.L().Warn("catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("catalog reloaded", zap.String("file", e.Name))
			holder.notify(updated)
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *CatalogHolder) Get() CatalogConfig {
	return h.current.Load().(CatalogConfig)
}

// Source returns the file the catalog was read from, empty for defaults.
func (h *CatalogHolder) Source() string {
	return h.source
}

func (h *CatalogHolder) OnChange(fn func(CatalogConfig)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *CatalogHolder) notify(cfg CatalogConfig) {
	h.mu.Lock()
	listeners := append([]func(CatalogConfig){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
}

func decodeCatalog(v *viper.Viper) (CatalogConfig, error) {
	var cfg CatalogConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CatalogConfig{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validateCatalog(cfg); err != nil {
		return CatalogConfig{}, err
	}
	return cfg, nil
}

// validateCatalog checks shape only; tier tables are validated by the rate catalog sync.
func validateCatalog(cfg CatalogConfig) error {
	seenDevices := map[string]struct{}{}
	for _, d := range cfg.Devices {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return errors.New("catalog.devices: name is required")
		}
		if strings.TrimSpace(d.Category) == "" {
			return fmt.Errorf("catalog.devices[%s]: category is required", name)
		}
		if _, dup := seenDevices[name]; dup {
			return fmt.Errorf("catalog.devices[%s]: duplicate name", name)
		}
		seenDevices[name] = struct{}{}
	}

	for _, p := range cfg.Products {
		if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Name) == "" {
			return errors.New("catalog.products: code and name are required")
		}
		if p.UnitPrice < 0 || p.Stock < 0 {
			return fmt.Errorf("catalog.products[%s]: unit_price and stock must not be negative", p.Code)
		}
	}

	seenProfiles := map[string]struct{}{}
	for _, rp := range cfg.RateProfiles {
		code := strings.TrimSpace(rp.Code)
		if code == "" {
			return errors.New("catalog.rate_profiles: code is required")
		}
		if strings.TrimSpace(rp.Category) == "" {
			return fmt.Errorf("catalog.rate_profiles[%s]: category is required", code)
		}
		if len(rp.Tiers) == 0 {
			return fmt.Errorf("catalog.rate_profiles[%s]: at least one tier is required", code)
		}
		if _, dup := seenProfiles[code]; dup {
			return fmt.Errorf("catalog.rate_profiles[%s]: duplicate code", code)
		}
		seenProfiles[code] = struct{}{}
	}
	return nil
}

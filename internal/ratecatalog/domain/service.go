package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"gorm.io/gorm"
)

// Service lookups take an optional tx so they can run inside a caller's transaction.
type Service interface {
	ListByCategory(ctx context.Context, category string) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)

	// Load returns the profile with its tiers sorted by min minutes, or ErrProfileNotFound.
	Load(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*RateProfile, error)
	// ResolveOrFallback returns the profile when it exists and belongs to category.
	// Otherwise it returns the category's first profile by code and reports the fallback;
	// a zero id selects that default without counting as a fallback.
	ResolveOrFallback(ctx context.Context, tx *gorm.DB, category devicedomain.Category, id snowflake.ID) (*RateProfile, bool, error)
	// Upsert creates or replaces a profile and its tiers, keyed by code.
	Upsert(ctx context.Context, req UpsertRequest) (*Response, error)
}

type TierInput struct {
	Min   int   `json:"min" validate:"gte=0"`
	Max   *int  `json:"max"`
	Price int64 `json:"price" validate:"gte=0"`
}

type UpsertRequest struct {
	Code                 string      `json:"code" validate:"required"`
	Name                 string      `json:"name" validate:"required"`
	Category             string      `json:"category" validate:"required,oneof=CONSOLE BILLIARD BOARD_GAME"`
	Tiers                []TierInput `json:"tiers" validate:"required,min=1,dive"`
	OverflowBlockMinutes *int        `json:"overflow_block_minutes"`
	OverflowBlockPrice   *int64      `json:"overflow_block_price"`
}

type TierResponse struct {
	MinMinutes int   `json:"min_minutes"`
	MaxMinutes *int  `json:"max_minutes,omitempty"`
	Price      int64 `json:"price"`
}

type Response struct {
	ID                   string                `json:"id"`
	Code                 string                `json:"code"`
	Name                 string                `json:"name"`
	Category             devicedomain.Category `json:"category"`
	Tiers                []TierResponse        `json:"tiers"`
	OverflowBlockMinutes *int                  `json:"overflow_block_minutes,omitempty"`
	OverflowBlockPrice   *int64                `json:"overflow_block_price,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidTiers    = errors.New("invalid_tiers")
	ErrProfileNotFound = errors.New("rate_profile_not_found")
	ErrNoProfiles      = errors.New("no_rate_profiles_for_category")
)

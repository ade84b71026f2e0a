package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProfile(ctx context.Context, db *gorm.DB, profile *RateProfile) error
	UpdateProfile(ctx context.Context, db *gorm.DB, profile *RateProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RateProfile, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*RateProfile, error)
	// List returns profiles ordered by code. An empty category lists all of them.
	List(ctx context.Context, db *gorm.DB, category devicedomain.Category) ([]RateProfile, error)

	ReplaceTiers(ctx context.Context, db *gorm.DB, profileID snowflake.ID, tiers []PricingTier) error
	ListTiers(ctx context.Context, db *gorm.DB, profileIDs []snowflake.ID) ([]PricingTier, error)
}

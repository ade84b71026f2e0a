package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/billing"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
)

// RateProfile is a named pricing schedule for one device category.
type RateProfile struct {
	ID                   snowflake.ID          `json:"id" gorm:"primaryKey"`
	Code                 string                `json:"code" gorm:"type:varchar(64);not null;uniqueIndex:ux_rate_profiles_code"`
	Name                 string                `json:"name" gorm:"type:text;not null"`
	Category             devicedomain.Category `json:"category" gorm:"type:varchar(32);not null;index"`
	OverflowBlockMinutes *int                  `json:"overflow_block_minutes,omitempty"`
	OverflowBlockPrice   *int64                `json:"overflow_block_price,omitempty"`
	CreatedAt            time.Time             `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time             `json:"updated_at" gorm:"not null"`

	Tiers []PricingTier `json:"tiers" gorm:"-"`
}

func (RateProfile) TableName() string { return "rate_profiles" }

type PricingTier struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	RateProfileID snowflake.ID `json:"rate_profile_id" gorm:"not null;index"`
	MinMinutes    int          `json:"min_minutes" gorm:"not null"`
	MaxMinutes    *int         `json:"max_minutes,omitempty"`
	Price         int64        `json:"price" gorm:"not null"`
}

func (PricingTier) TableName() string { return "pricing_tiers" }

// TierTable converts the stored rows into the calculator's input.
func (p RateProfile) TierTable() billing.TierTable {
	table := billing.TierTable{Tiers: make([]billing.Tier, 0, len(p.Tiers))}
	for _, t := range p.Tiers {
		table.Tiers = append(table.Tiers, billing.Tier{Min: t.MinMinutes, Max: t.MaxMinutes, Price: t.Price})
	}
	if p.OverflowBlockMinutes != nil && p.OverflowBlockPrice != nil {
		table.Overflow = &billing.Overflow{
			BlockMinutes: *p.OverflowBlockMinutes,
			BlockPrice:   *p.OverflowBlockPrice,
		}
	}
	return table
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const profileColumns = `id, code, name, category, overflow_block_minutes, overflow_block_price, created_at, updated_at`

func (r *repo) InsertProfile(ctx context.Context, db *gorm.DB, profile *domain.RateProfile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rate_profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Code,
		profile.Name,
		profile.Category,
		profile.OverflowBlockMinutes,
		profile.OverflowBlockPrice,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, profile *domain.RateProfile) error {
	return db.WithContext(ctx).Exec(
		`UPDATE rate_profiles
		 SET name = ?, category = ?, overflow_block_minutes = ?, overflow_block_price = ?, updated_at = ?
		 WHERE id = ?`,
		profile.Name,
		profile.Category,
		profile.OverflowBlockMinutes,
		profile.OverflowBlockPrice,
		profile.UpdatedAt,
		profile.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RateProfile, error) {
	var p domain.RateProfile
	err := db.WithContext(ctx).Raw(
		`SELECT `+profileColumns+` FROM rate_profiles WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.RateProfile, error) {
	var p domain.RateProfile
	err := db.WithContext(ctx).Raw(
		`SELECT `+profileColumns+` FROM rate_profiles WHERE code = ?`,
		code,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, category devicedomain.Category) ([]domain.RateProfile, error) {
	var items []domain.RateProfile
	stmt := db.WithContext(ctx).Model(&domain.RateProfile{})
	if category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if err := stmt.Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceTiers(ctx context.Context, db *gorm.DB, profileID snowflake.ID, tiers []domain.PricingTier) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM pricing_tiers WHERE rate_profile_id = ?`,
		profileID,
	).Error; err != nil {
		return err
	}
	for _, t := range tiers {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO pricing_tiers (id, rate_profile_id, min_minutes, max_minutes, price)
			 VALUES (?, ?, ?, ?, ?)`,
			t.ID,
			profileID,
			t.MinMinutes,
			t.MaxMinutes,
			t.Price,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ListTiers(ctx context.Context, db *gorm.DB, profileIDs []snowflake.ID) ([]domain.PricingTier, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var items []domain.PricingTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, rate_profile_id, min_minutes, max_minutes, price
		 FROM pricing_tiers WHERE rate_profile_id IN ? ORDER BY rate_profile_id, min_minutes ASC`,
		profileIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

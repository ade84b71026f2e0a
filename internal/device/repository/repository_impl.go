package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/device/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, device *domain.Device) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO devices (id, name, category, status, active_session_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.Name,
		device.Category,
		device.Status,
		device.ActiveSessionID,
		device.CreatedAt,
		device.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Device, error) {
	var d domain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, status, active_session_id, created_at, updated_at
		 FROM devices WHERE id = ?`,
		id,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Device, error) {
	var d domain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, status, active_session_id, created_at, updated_at
		 FROM devices WHERE name = ?`,
		name,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, category domain.Category) ([]domain.Device, error) {
	var items []domain.Device
	stmt := db.WithContext(ctx).Model(&domain.Device{})
	if category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateCategory(ctx context.Context, db *gorm.DB, id snowflake.ID, category domain.Category, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE devices SET category = ?, updated_at = ? WHERE id = ?`,
		category,
		now,
		id,
	).Error
}

func (r *repo) Occupy(ctx context.Context, db *gorm.DB, id, sessionID snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE devices
		 SET status = ?, active_session_id = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusOccupied,
		sessionID,
		now,
		id,
		domain.StatusAvailable,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, id, sessionID snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE devices
		 SET status = ?, active_session_id = NULL, updated_at = ?
		 WHERE id = ? AND active_session_id = ?`,
		domain.StatusAvailable,
		now,
		id,
		sessionID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

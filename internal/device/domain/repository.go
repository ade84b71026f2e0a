package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Device, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Device, error)
	List(ctx context.Context, db *gorm.DB, category Category) ([]Device, error)
	UpdateCategory(ctx context.Context, db *gorm.DB, id snowflake.ID, category Category, now time.Time) error

	// Occupy flips AVAILABLE to OCCUPIED. It reports false when the device was not available.
	Occupy(ctx context.Context, db *gorm.DB, id, sessionID snowflake.ID, now time.Time) (bool, error)
	// Release frees the device only while it still points at sessionID.
	Release(ctx context.Context, db *gorm.DB, id, sessionID snowflake.ID, now time.Time) (bool, error)
}

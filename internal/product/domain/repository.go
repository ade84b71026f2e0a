package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Product, error)
	List(ctx context.Context, db *gorm.DB) ([]Product, error)
	UpdateDetails(ctx context.Context, db *gorm.DB, product *Product) error

	// DecrementStock takes qty units only when at least qty are left.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64, now time.Time) (bool, error)
	IncrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int64, now time.Time) error
}

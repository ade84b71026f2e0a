package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, line *OrderLine) error
	// LatestLine returns the most recently inserted line of a product, or nil.
	LatestLine(ctx context.Context, db *gorm.DB, sessionID *snowflake.ID, productID snowflake.ID) (*OrderLine, error)
	DecrementQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListGrouped(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]GroupedLine, error)
	SumTotal(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (int64, error)
}

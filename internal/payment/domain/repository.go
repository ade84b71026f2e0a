package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *PaymentEntry) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentEntry, error)
	Update(ctx context.Context, db *gorm.DB, entry *PaymentEntry) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	ListBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]PaymentEntry, error)
	SumByMethod(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (Totals, error)
}

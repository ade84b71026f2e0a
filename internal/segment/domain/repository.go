package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *SegmentLogEntry) error
	// CloseOpen ends the open entry of a session and returns the affected row count.
	CloseOpen(ctx context.Context, db *gorm.DB, sessionID snowflake.ID, at time.Time) (int64, error)
	ListBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]SegmentLogEntry, error)
	CountBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (int64, error)
}

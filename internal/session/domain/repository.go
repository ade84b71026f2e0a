package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type HistoryFilter struct {
	From     time.Time
	To       time.Time
	BeforeAt *time.Time
	BeforeID snowflake.ID
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Session, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, id, profileID snowflake.ID, now time.Time) error
	// Complete writes the settlement only while the session is still ACTIVE.
	Complete(ctx context.Context, db *gorm.DB, settlement Settlement) (bool, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Session, error)
	// ListHistory returns completed sessions ended in [From, To), newest first.
	ListHistory(ctx context.Context, db *gorm.DB, filter HistoryFilter) ([]Session, error)

	ListTransferCandidates(ctx context.Context, db *gorm.DB) ([]TransferCandidate, error)
	TransferClaimed(ctx context.Context, db *gorm.DB, sourceID snowflake.ID) (bool, error)
}

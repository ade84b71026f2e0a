package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service writes inside the caller's transaction. A nil tx uses the service's own handle.
type Service interface {
	OpenInitial(ctx context.Context, tx *gorm.DB, sessionID, profileID snowflake.ID, startedAt time.Time) error
	Switch(ctx context.Context, tx *gorm.DB, req SwitchRequest) error
	Close(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID, at time.Time) (bool, error)
	List(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID, now time.Time) ([]Span, error)
}

type SwitchRequest struct {
	SessionID    snowflake.ID
	NewProfileID snowflake.ID
	At           time.Time

	// Sessions created before segment logging have no entries at all. Their
	// history is backfilled from these values before the switch.
	SessionStartedAt time.Time
	CurrentProfileID snowflake.ID
}

var ErrNoOpenSegment = errors.New("no_open_segment")

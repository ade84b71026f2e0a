package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SegmentLogEntry records one rate-profile period of a session. EndedAt is nil while open.
type SegmentLogEntry struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	SessionID     snowflake.ID `json:"session_id" gorm:"not null;index:ix_segment_log_entries_session,priority:1"`
	RateProfileID snowflake.ID `json:"rate_profile_id" gorm:"not null"`
	StartedAt     time.Time    `json:"started_at" gorm:"not null;index:ix_segment_log_entries_session,priority:2"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
}

func (SegmentLogEntry) TableName() string { return "segment_log_entries" }

// Span is a segment with its end resolved, ready for billing.
type Span struct {
	RateProfileID snowflake.ID
	StartedAt     time.Time
	EndedAt       time.Time
	Open          bool
}

// Minutes is the fractional duration of the span.
func (s Span) Minutes() float64 {
	d := s.EndedAt.Sub(s.StartedAt)
	if d <= 0 {
		return 0
	}
	return d.Minutes()
}

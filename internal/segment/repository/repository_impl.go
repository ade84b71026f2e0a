package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/segment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.SegmentLogEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO segment_log_entries (id, session_id, rate_profile_id, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SessionID,
		entry.RateProfileID,
		entry.StartedAt,
		entry.EndedAt,
	).Error
}

func (r *repo) CloseOpen(ctx context.Context, db *gorm.DB, sessionID snowflake.ID, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE segment_log_entries SET ended_at = ? WHERE session_id = ? AND ended_at IS NULL`,
		at,
		sessionID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ListBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]domain.SegmentLogEntry, error) {
	var items []domain.SegmentLogEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, rate_profile_id, started_at, ended_at
		 FROM segment_log_entries WHERE session_id = ? ORDER BY started_at ASC, id ASC`,
		sessionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM segment_log_entries WHERE session_id = ?`,
		sessionID,
	).Scan(&count).Error
	return count, err
}

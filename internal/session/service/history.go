package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/session/domain"
	"github.com/smallbiznis/lounge/pkg/db/pagination"
)

const defaultHistoryWindow = 24 * time.Hour

// ListHistory pages completed sessions ended within [From, To), newest first.
func (s *Service) ListHistory(ctx context.Context, req domain.HistoryRequest) (*domain.HistoryResponse, error) {
	to := req.To
	if to.IsZero() {
		to = s.clock.Now()
	}
	from := req.From
	if from.IsZero() {
		from = to.Add(-defaultHistoryWindow)
	}
	if !from.Before(to) {
		return nil, domain.ErrInvalidRange
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return nil, err
	}

	limit := req.Limit()
	filter := domain.HistoryFilter{
		From:  from.UTC(),
		To:    to.UTC(),
		Limit: limit + 1,
	}
	if cursor != nil {
		at := cursor.At
		filter.BeforeAt = &at
		filter.BeforeID = snowflake.ID(cursor.ID)
	}

	rows, err := s.repo.ListHistory(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	rows, pageInfo, err := pagination.Trim(rows, limit, func(row domain.Session) pagination.Cursor {
		c := pagination.Cursor{ID: row.ID.Int64()}
		if row.EndedAt != nil {
			c.At = *row.EndedAt
		}
		return c
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Response, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, toResponse(&rows[i]))
	}
	return &domain.HistoryResponse{Sessions: sessions, PageInfo: pageInfo}, nil
}

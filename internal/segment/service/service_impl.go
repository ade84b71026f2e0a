package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/segment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("segment.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *Service) OpenInitial(ctx context.Context, tx *gorm.DB, sessionID, profileID snowflake.ID, startedAt time.Time) error {
	return s.repo.Insert(ctx, s.conn(tx), &domain.SegmentLogEntry{
		ID:            s.genID.Generate(),
		SessionID:     sessionID,
		RateProfileID: profileID,
		StartedAt:     startedAt,
	})
}

func (s *Service) Switch(ctx context.Context, tx *gorm.DB, req domain.SwitchRequest) error {
	db := s.conn(tx)

	closed, err := s.repo.CloseOpen(ctx, db, req.SessionID, req.At)
	if err != nil {
		return err
	}
	if closed == 0 {
		count, err := s.repo.CountBySession(ctx, db, req.SessionID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrNoOpenSegment
		}

		ended := req.At
		if err := s.repo.Insert(ctx, db, &domain.SegmentLogEntry{
			ID:            s.genID.Generate(),
			SessionID:     req.SessionID,
			RateProfileID: req.CurrentProfileID,
			StartedAt:     req.SessionStartedAt,
			EndedAt:       &ended,
		}); err != nil {
			return err
		}
		s.log.Info("backfilled segment history",
			zap.String("session_id", req.SessionID.String()),
			zap.String("rate_profile_id", req.CurrentProfileID.String()),
		)
	}

	return s.repo.Insert(ctx, db, &domain.SegmentLogEntry{
		ID:            s.genID.Generate(),
		SessionID:     req.SessionID,
		RateProfileID: req.NewProfileID,
		StartedAt:     req.At,
	})
}

func (s *Service) Close(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID, at time.Time) (bool, error) {
	closed, err := s.repo.CloseOpen(ctx, s.conn(tx), sessionID, at)
	if err != nil {
		return false, err
	}
	return closed > 0, nil
}

func (s *Service) List(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID, now time.Time) ([]domain.Span, error) {
	entries, err := s.repo.ListBySession(ctx, s.conn(tx), sessionID)
	if err != nil {
		return nil, err
	}

	spans := make([]domain.Span, 0, len(entries))
	for _, e := range entries {
		span := domain.Span{
			RateProfileID: e.RateProfileID,
			StartedAt:     e.StartedAt,
			EndedAt:       now,
			Open:          e.EndedAt == nil,
		}
		if e.EndedAt != nil {
			span.EndedAt = *e.EndedAt
		}
		spans = append(spans, span)
	}
	return spans, nil
}

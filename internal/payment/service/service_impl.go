package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	"github.com/smallbiznis/lounge/internal/payment/domain"
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
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, req domain.RecordRequest) (*domain.Response, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	method, ok := domain.ParseMethod(req.Method)
	if !ok {
		return nil, domain.ErrInvalidMethod
	}

	now := s.clock.Now()
	entry := &domain.PaymentEntry{
		ID:        s.genID.Generate(),
		SessionID: req.SessionID,
		Amount:    req.Amount,
		Method:    method,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.conn(tx), entry); err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("session_id", req.SessionID.String()),
		zap.Int64("amount", entry.Amount),
		zap.String("method", string(entry.Method)),
	)

	resp := toResponse(entry)
	return &resp, nil
}

func (s *Service) Edit(ctx context.Context, tx *gorm.DB, req domain.EditRequest) (*domain.Response, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	method, ok := domain.ParseMethod(req.Method)
	if !ok {
		return nil, domain.ErrInvalidMethod
	}

	db := s.conn(tx)
	entry, err := s.repo.FindByID(ctx, db, req.ID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrPaymentNotFound
	}

	entry.Amount = req.Amount
	entry.Method = method
	entry.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, db, entry); err != nil {
		return nil, err
	}

	resp := toResponse(entry)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	deleted, err := s.repo.Delete(ctx, s.conn(tx), id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (s *Service) Find(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.PaymentEntry, error) {
	entry, err := s.repo.FindByID(ctx, s.conn(tx), id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) ([]domain.Response, error) {
	items, err := s.repo.ListBySession(ctx, s.conn(tx), sessionID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Totals(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) (domain.Totals, error) {
	return s.repo.SumByMethod(ctx, s.conn(tx), sessionID)
}

func toResponse(entry *domain.PaymentEntry) domain.Response {
	return domain.Response{
		ID:        entry.ID.String(),
		Amount:    entry.Amount,
		Method:    entry.Method,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
	"github.com/smallbiznis/lounge/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	SessionRepo sessiondomain.Repository
	PaymentSvc  paymentdomain.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	sessionRepo sessiondomain.Repository
	paymentSvc  paymentdomain.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settlement.service"),
		sessionRepo: p.SessionRepo,
		paymentSvc:  p.PaymentSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) ListTransferCandidates(ctx context.Context) ([]domain.CandidateResponse, error) {
	items, err := s.sessionRepo.ListTransferCandidates(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.CandidateResponse, 0, len(items))
	for _, item := range items {
		totals, err := s.paymentSvc.Totals(ctx, s.db, item.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, domain.CandidateResponse{
			SessionID:   item.ID.String(),
			DeviceID:    item.DeviceID.String(),
			DeviceName:  item.DeviceName,
			EndedAt:     item.EndedAt,
			FinalAmount: item.FinalAmount,
			Paid:        totals.Paid(),
			CarryAmount: domain.BalanceDue(item.FinalAmount, totals.Paid()),
		})
	}
	return resp, nil
}

func (s *Service) ClaimTransfer(ctx context.Context, tx *gorm.DB, sourceID snowflake.ID) (int64, error) {
	db := tx
	if db == nil {
		db = s.db
	}

	source, err := s.sessionRepo.FindByID(ctx, db, sourceID)
	if err != nil {
		return 0, err
	}
	if source == nil || source.Status != sessiondomain.StatusCompleted ||
		source.PaymentMethod == nil || *source.PaymentMethod != sessiondomain.PaymentMethodCarryForward {
		return 0, domain.ErrInvalidTransferSource
	}

	claimed, err := s.sessionRepo.TransferClaimed(ctx, db, sourceID)
	if err != nil {
		return 0, err
	}
	if claimed {
		return 0, domain.ErrBillTransferAlreadyUsed
	}

	amount, err := s.CarryAmount(ctx, db, sourceID, source.FinalAmount)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordTransferClaimed()
	s.log.Info("carry-forward balance claimed",
		zap.String("source_session_id", sourceID.String()),
		zap.Int64("amount", amount),
	)
	return amount, nil
}

func (s *Service) CarryAmount(ctx context.Context, tx *gorm.DB, sourceID snowflake.ID, finalAmount int64) (int64, error) {
	db := tx
	if db == nil {
		db = s.db
	}
	totals, err := s.paymentSvc.Totals(ctx, db, sourceID)
	if err != nil {
		return 0, err
	}
	return domain.BalanceDue(finalAmount, totals.Paid()), nil
}

package service

import (
	"context"
	"strings"

	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}

	var method domain.PaymentMethod
	if raw := strings.TrimSpace(req.PaymentMethod); raw != "" {
		parsed, ok := domain.ParsePaymentMethod(raw)
		if !ok {
			return nil, domain.ErrInvalidPaymentMethod
		}
		method = parsed
	}
	if req.FinalAmountOverride != nil && *req.FinalAmountOverride <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var (
		settlement domain.Settlement
		deviceName string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.loadActive(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if _, err := s.segmentSvc.Close(ctx, tx, session.ID, now); err != nil {
			return err
		}

		device, err := s.deviceRepo.FindByID(ctx, tx, session.DeviceID)
		if err != nil {
			return err
		}
		if device == nil {
			return devicedomain.ErrNotFound
		}
		deviceName = device.Name

		priced, err := s.priceSpans(ctx, tx, session, device.Category, now)
		if err != nil {
			return err
		}
		timeCharge := priced.timeCharge()
		itemsTotal, err := s.orderSvc.ItemsTotal(ctx, tx, session.ID)
		if err != nil {
			return err
		}

		final := timeCharge + itemsTotal + session.TransferAmount
		overridden := false
		if req.FinalAmountOverride != nil {
			final = *req.FinalAmountOverride
			overridden = true
		}

		paid, err := s.paymentSvc.Totals(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		due := settlementdomain.BalanceDue(final, paid.Paid())

		chosen := method
		if chosen == "" {
			if due > 0 {
				return domain.ErrMissingPaymentMethod
			}
			chosen = settlementdomain.InferMethod(paid)
		}

		split, err := settlementdomain.CloseSplit(chosen, due, req.CashPortion, paid)
		if err != nil {
			return err
		}

		settlement = domain.Settlement{
			SessionID:        session.ID,
			EndedAt:          now,
			TimeCharge:       timeCharge,
			ItemsTotal:       itemsTotal,
			FinalAmount:      final,
			AmountOverridden: overridden,
			PaymentMethod:    chosen,
			CashAmount:       split.Cash,
			UPIAmount:        split.UPI,
		}
		ok, err := s.repo.Complete(ctx, tx, settlement)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyCompleted
		}

		released, err := s.deviceRepo.Release(ctx, tx, session.DeviceID, session.ID, now)
		if err != nil {
			return err
		}
		if !released {
			s.log.Warn("device not pointing at checked out session",
				zap.String("session_id", session.ID.String()),
				zap.String("device_id", session.DeviceID.String()),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheckout(string(settlement.PaymentMethod))
	s.log.Info("session checked out",
		zap.String("session_id", sessionID.String()),
		zap.String("device", deviceName),
		zap.String("payment_method", string(settlement.PaymentMethod)),
		zap.Int64("final_amount", settlement.FinalAmount),
		zap.Bool("amount_overridden", settlement.AmountOverridden),
	)
	return s.bill(ctx, sessionID)
}

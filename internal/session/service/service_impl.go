package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/clock"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/devicelock"
	"github.com/smallbiznis/lounge/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	segmentdomain "github.com/smallbiznis/lounge/internal/segment/domain"
	"github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"github.com/smallbiznis/lounge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	DeviceRepo    devicedomain.Repository
	RateCatalog   ratecatalogdomain.Service
	SegmentSvc    segmentdomain.Service
	OrderSvc      orderdomain.Service
	PaymentSvc    paymentdomain.Service
	SettlementSvc settlementdomain.Service
	Clock         clock.Clock      `optional:"true"`
	Metrics       *metrics.Metrics `optional:"true"`
	DeviceLock    *devicelock.Lock `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	deviceRepo    devicedomain.Repository
	rateCatalog   ratecatalogdomain.Service
	segmentSvc    segmentdomain.Service
	orderSvc      orderdomain.Service
	paymentSvc    paymentdomain.Service
	settlementSvc settlementdomain.Service
	clock         clock.Clock
	metrics       *metrics.Metrics
	deviceLock    *devicelock.Lock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("session.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		deviceRepo:    p.DeviceRepo,
		rateCatalog:   p.RateCatalog,
		segmentSvc:    p.SegmentSvc,
		orderSvc:      p.OrderSvc,
		paymentSvc:    p.PaymentSvc,
		settlementSvc: p.SettlementSvc,
		clock:         clk,
		metrics:       p.Metrics,
		deviceLock:    p.DeviceLock,
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// loadActive reads the session inside tx and rejects anything not ACTIVE.
func (s *Service) loadActive(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Session, error) {
	session, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	if !session.Active() {
		return nil, domain.ErrAlreadyCompleted
	}
	return session, nil
}

func (s *Service) Start(ctx context.Context, req domain.StartRequest) (*domain.Bill, error) {
	deviceID, err := parseID(req.DeviceID)
	if err != nil {
		return nil, err
	}

	var profileID snowflake.ID
	if raw := strings.TrimSpace(req.RateProfileID); raw != "" {
		if profileID, err = parseID(raw); err != nil {
			return nil, err
		}
	}

	var transferID *snowflake.ID
	if req.TransferSessionID != nil && strings.TrimSpace(*req.TransferSessionID) != "" {
		id, err := parseID(*req.TransferSessionID)
		if err != nil {
			return nil, err
		}
		transferID = &id
	}

	if req.PlannedMinutes != nil && *req.PlannedMinutes <= 0 {
		req.PlannedMinutes = nil
	}

	device, err := s.deviceRepo.FindByID(ctx, s.db, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, devicedomain.ErrNotFound
	}
	if device.Status != devicedomain.StatusAvailable {
		return nil, devicedomain.ErrDeviceNotAvailable
	}

	// An explicit profile of another category is rejected; an unknown one falls back.
	if profileID != 0 {
		requested, err := s.rateCatalog.Load(ctx, nil, profileID)
		switch {
		case errors.Is(err, ratecatalogdomain.ErrProfileNotFound):
		case err != nil:
			return nil, err
		case requested.Category != device.Category:
			return nil, domain.ErrProfileCategoryMismatch
		}
	}

	profile, fallback, err := s.rateCatalog.ResolveOrFallback(ctx, nil, device.Category, profileID)
	if err != nil {
		return nil, err
	}

	release, err := s.deviceLock.Acquire(ctx, device.ID)
	defer release()
	if err != nil {
		if errors.Is(err, devicelock.ErrDeviceBusy) {
			return nil, devicedomain.ErrDeviceNotAvailable
		}
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:                s.genID.Generate(),
		DeviceID:          device.ID,
		RateProfileID:     profile.ID,
		Status:            domain.StatusActive,
		StartedAt:         now,
		PlannedMinutes:    req.PlannedMinutes,
		TransferSessionID: transferID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if transferID != nil {
			amount, err := s.settlementSvc.ClaimTransfer(ctx, tx, *transferID)
			if err != nil {
				return err
			}
			session.TransferAmount = amount
		}

		if err := s.repo.Insert(ctx, tx, session); err != nil {
			if transferID != nil && db.IsDuplicateKeyErr(err) {
				return settlementdomain.ErrBillTransferAlreadyUsed
			}
			return err
		}
		if err := s.segmentSvc.OpenInitial(ctx, tx, session.ID, profile.ID, now); err != nil {
			return err
		}

		ok, err := s.deviceRepo.Occupy(ctx, tx, device.ID, session.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return devicedomain.ErrDeviceNotAvailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSessionStarted()
	fields := []zap.Field{
		zap.String("session_id", session.ID.String()),
		zap.String("device", device.Name),
		zap.String("rate_profile", profile.Code),
	}
	if fallback {
		fields = append(fields, zap.Bool("profile_fallback", true))
	}
	if transferID != nil {
		fields = append(fields,
			zap.String("transfer_session_id", transferID.String()),
			zap.Int64("transfer_amount", session.TransferAmount),
		)
	}
	s.log.Info("session started", fields...)

	bill, err := s.bill(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	bill.ProfileFallback = bill.ProfileFallback || fallback
	return bill, nil
}

func (s *Service) SwitchProfile(ctx context.Context, req domain.SwitchProfileRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}
	profileID, err := parseID(req.RateProfileID)
	if err != nil {
		return nil, err
	}

	var switched bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.loadActive(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.RateProfileID == profileID {
			return nil
		}

		device, err := s.deviceRepo.FindByID(ctx, tx, session.DeviceID)
		if err != nil {
			return err
		}
		if device == nil {
			return devicedomain.ErrNotFound
		}
		profile, err := s.rateCatalog.Load(ctx, tx, profileID)
		if err != nil {
			return err
		}
		if profile.Category != device.Category {
			return domain.ErrProfileCategoryMismatch
		}

		now := s.clock.Now()
		if err := s.segmentSvc.Switch(ctx, tx, segmentdomain.SwitchRequest{
			SessionID:        session.ID,
			NewProfileID:     profile.ID,
			At:               now,
			SessionStartedAt: session.StartedAt,
			CurrentProfileID: session.RateProfileID,
		}); err != nil {
			return err
		}
		if err := s.repo.UpdateProfile(ctx, tx, session.ID, profile.ID, now); err != nil {
			return err
		}
		switched = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if switched {
		s.log.Info("rate profile switched",
			zap.String("session_id", sessionID.String()),
			zap.String("rate_profile_id", profileID.String()),
		)
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) AddItem(ctx context.Context, req domain.AddItemRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadActive(ctx, tx, sessionID); err != nil {
			return err
		}
		_, err := s.orderSvc.AddItem(ctx, tx, orderdomain.AddItemRequest{
			SessionID: &sessionID,
			ProductID: productID,
			Quantity:  req.Quantity,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) RemoveItem(ctx context.Context, req domain.RemoveItemRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadActive(ctx, tx, sessionID); err != nil {
			return err
		}
		return s.orderSvc.RemoveOneUnit(ctx, tx, &sessionID, productID)
	})
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadActive(ctx, tx, sessionID); err != nil {
			return err
		}
		_, err := s.paymentSvc.Record(ctx, tx, paymentdomain.RecordRequest{
			SessionID: sessionID,
			Amount:    req.Amount,
			Method:    req.Method,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) EditPayment(ctx context.Context, req domain.EditPaymentRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID(req.PaymentID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ownPayment(ctx, tx, sessionID, paymentID); err != nil {
			return err
		}
		_, err := s.paymentSvc.Edit(ctx, tx, paymentdomain.EditRequest{
			ID:     paymentID,
			Amount: req.Amount,
			Method: req.Method,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) DeletePayment(ctx context.Context, req domain.DeletePaymentRequest) (*domain.Bill, error) {
	sessionID, err := parseID(req.SessionID)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID(req.PaymentID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ownPayment(ctx, tx, sessionID, paymentID); err != nil {
			return err
		}
		return s.paymentSvc.Delete(ctx, tx, paymentID)
	})
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

// ownPayment checks the session is ACTIVE and the payment is one of its deposits.
func (s *Service) ownPayment(ctx context.Context, tx *gorm.DB, sessionID, paymentID snowflake.ID) error {
	if _, err := s.loadActive(ctx, tx, sessionID); err != nil {
		return err
	}
	entry, err := s.paymentSvc.Find(ctx, tx, paymentID)
	if err != nil {
		return err
	}
	if entry.SessionID != sessionID {
		return domain.ErrPaymentNotInSession
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	sessionID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.FindByID(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(session)
	return &resp, nil
}

func toResponse(session *domain.Session) domain.Response {
	resp := domain.Response{
		ID:               session.ID.String(),
		DeviceID:         session.DeviceID.String(),
		RateProfileID:    session.RateProfileID.String(),
		Status:           session.Status,
		StartedAt:        session.StartedAt,
		EndedAt:          session.EndedAt,
		PlannedMinutes:   session.PlannedMinutes,
		TransferAmount:   session.TransferAmount,
		TimeCharge:       session.TimeCharge,
		ItemsTotal:       session.ItemsTotal,
		FinalAmount:      session.FinalAmount,
		AmountOverridden: session.AmountOverridden,
		PaymentMethod:    session.PaymentMethod,
		CashAmount:       session.CashAmount,
		UPIAmount:        session.UPIAmount,
	}
	if session.TransferSessionID != nil {
		v := session.TransferSessionID.String()
		resp.TransferSessionID = &v
	}
	return resp
}

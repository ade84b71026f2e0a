package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/billing"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	segmentdomain "github.com/smallbiznis/lounge/internal/segment/domain"
	"github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type pricedSpan struct {
	span    segmentdomain.Span
	profile *ratecatalogdomain.RateProfile
}

type pricedSpans []pricedSpan

func (p pricedSpans) timeCharge() int64 {
	input := make([]billing.Segment, 0, len(p))
	for _, item := range p {
		input = append(input, billing.Segment{
			Minutes: item.span.Minutes(),
			Table:   item.profile.TierTable(),
		})
	}
	return billing.WeightedBill(input)
}

// spans returns the session's segments with open ends resolved to now. A session
// without any log entries is one segment at its current profile.
func (s *Service) spans(ctx context.Context, tx *gorm.DB, session *domain.Session, now time.Time) ([]segmentdomain.Span, error) {
	spans, err := s.segmentSvc.List(ctx, tx, session.ID, now)
	if err != nil {
		return nil, err
	}
	if len(spans) > 0 {
		return spans, nil
	}
	end := now
	if session.EndedAt != nil {
		end = *session.EndedAt
	}
	return []segmentdomain.Span{{
		RateProfileID: session.RateProfileID,
		StartedAt:     session.StartedAt,
		EndedAt:       end,
		Open:          session.Active(),
	}}, nil
}

// priceSpans attaches a tier table to every segment. A profile that no longer
// resolves is priced with the category fallback.
func (s *Service) priceSpans(ctx context.Context, tx *gorm.DB, session *domain.Session, category devicedomain.Category, now time.Time) (pricedSpans, error) {
	spans, err := s.spans(ctx, tx, session, now)
	if err != nil {
		return nil, err
	}

	profiles := make(map[snowflake.ID]*ratecatalogdomain.RateProfile)
	out := make(pricedSpans, 0, len(spans))
	for _, span := range spans {
		profile, ok := profiles[span.RateProfileID]
		if !ok {
			profile, _, err = s.rateCatalog.ResolveOrFallback(ctx, tx, category, span.RateProfileID)
			if err != nil {
				return nil, err
			}
			profiles[span.RateProfileID] = profile
		}
		out = append(out, pricedSpan{span: span, profile: profile})
	}
	return out, nil
}

func (s *Service) CurrentBill(ctx context.Context, id string) (*domain.Bill, error) {
	sessionID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.bill(ctx, sessionID)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Bill, error) {
	sessions, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(sessions))
	for i := range sessions {
		bill, err := s.project(ctx, &sessions[i])
		if err != nil {
			return nil, err
		}
		bills = append(bills, *bill)
	}
	return bills, nil
}

func (s *Service) bill(ctx context.Context, id snowflake.ID) (*domain.Bill, error) {
	session, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	return s.project(ctx, session)
}

// project recomputes the bill of an active session, or returns the frozen
// settlement of a completed one.
func (s *Service) project(ctx context.Context, session *domain.Session) (*domain.Bill, error) {
	device, err := s.deviceRepo.FindByID(ctx, s.db, session.DeviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, devicedomain.ErrNotFound
	}

	items, err := s.orderSvc.ListGrouped(ctx, nil, session.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentSvc.List(ctx, nil, session.ID)
	if err != nil {
		return nil, err
	}
	deposits, err := s.paymentSvc.Totals(ctx, nil, session.ID)
	if err != nil {
		return nil, err
	}

	bill := &domain.Bill{
		SessionID:      session.ID.String(),
		DeviceID:       device.ID.String(),
		DeviceName:     device.Name,
		Status:         session.Status,
		RateProfileID:  session.RateProfileID.String(),
		StartedAt:      session.StartedAt,
		EndedAt:        session.EndedAt,
		PlannedMinutes: session.PlannedMinutes,
		TransferAmount: session.TransferAmount,
		Items:          items,
		Payments:       payments,
	}
	if session.TransferSessionID != nil {
		v := session.TransferSessionID.String()
		bill.TransferSessionID = &v
	}

	if session.Active() {
		err = s.projectActive(ctx, session, device, deposits, bill)
	} else {
		err = s.projectCompleted(ctx, session, deposits, bill)
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) projectActive(ctx context.Context, session *domain.Session, device *devicedomain.Device, deposits paymentdomain.Totals, bill *domain.Bill) error {
	now := s.clock.Now()

	current, fallback, err := s.rateCatalog.ResolveOrFallback(ctx, nil, device.Category, session.RateProfileID)
	if err != nil {
		return err
	}
	if fallback && current.ID != session.RateProfileID {
		if err := s.repo.UpdateProfile(ctx, s.db, session.ID, current.ID, now); err != nil {
			return err
		}
		s.log.Warn("session rate profile replaced by fallback",
			zap.String("session_id", session.ID.String()),
			zap.String("broken_rate_profile_id", session.RateProfileID.String()),
			zap.String("rate_profile", current.Code),
		)
		session.RateProfileID = current.ID
		bill.RateProfileID = current.ID.String()
	}
	bill.RateProfileCode = current.Code
	bill.ProfileFallback = fallback

	priced, err := s.priceSpans(ctx, nil, session, device.Category, now)
	if err != nil {
		return err
	}
	itemsTotal, err := s.orderSvc.ItemsTotal(ctx, nil, session.ID)
	if err != nil {
		return err
	}

	bill.Segments = segmentLines(spansOf(priced))
	bill.ElapsedMinutes = minutesBetween(session.StartedAt, now)
	bill.TimeCharge = priced.timeCharge()
	bill.ItemsTotal = itemsTotal
	bill.Total = bill.TimeCharge + itemsTotal + session.TransferAmount
	bill.TotalPaid = deposits.Paid()
	bill.BalanceDue = settlementdomain.BalanceDue(bill.Total, bill.TotalPaid)
	return nil
}

func (s *Service) projectCompleted(ctx context.Context, session *domain.Session, deposits paymentdomain.Totals, bill *domain.Bill) error {
	ended := s.clock.Now()
	if session.EndedAt != nil {
		ended = *session.EndedAt
	}
	spans, err := s.spans(ctx, nil, session, ended)
	if err != nil {
		return err
	}

	profile, err := s.rateCatalog.Load(ctx, nil, session.RateProfileID)
	switch {
	case err == nil:
		bill.RateProfileCode = profile.Code
	case !errors.Is(err, ratecatalogdomain.ErrProfileNotFound):
		return err
	}

	bill.Segments = segmentLines(spans)
	bill.ElapsedMinutes = minutesBetween(session.StartedAt, ended)
	bill.TimeCharge = session.TimeCharge
	bill.ItemsTotal = session.ItemsTotal
	bill.Total = session.FinalAmount
	bill.AmountOverridden = session.AmountOverridden
	bill.PaymentMethod = session.PaymentMethod
	bill.CashAmount = session.CashAmount
	bill.UPIAmount = session.UPIAmount

	// carry-forward settlements store no collection, only the deposits were taken
	if session.PaymentMethod != nil && *session.PaymentMethod == domain.PaymentMethodCarryForward {
		bill.TotalPaid = deposits.Paid()
	} else {
		bill.TotalPaid = session.CashAmount + session.UPIAmount
	}
	bill.BalanceDue = settlementdomain.BalanceDue(bill.Total, bill.TotalPaid)
	return nil
}

func spansOf(priced pricedSpans) []segmentdomain.Span {
	out := make([]segmentdomain.Span, 0, len(priced))
	for _, item := range priced {
		out = append(out, item.span)
	}
	return out
}

func segmentLines(spans []segmentdomain.Span) []domain.SegmentLine {
	lines := make([]domain.SegmentLine, 0, len(spans))
	for _, span := range spans {
		line := domain.SegmentLine{
			RateProfileID: span.RateProfileID.String(),
			StartedAt:     span.StartedAt,
			Minutes:       span.Minutes(),
		}
		if !span.Open {
			end := span.EndedAt
			line.EndedAt = &end
		}
		lines = append(lines, line)
	}
	return lines
}

func minutesBetween(from, to time.Time) float64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return d.Minutes()
}

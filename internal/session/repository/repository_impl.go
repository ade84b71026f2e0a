package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/session/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const sessionColumns = `id, device_id, rate_profile_id, status, started_at, ended_at, planned_minutes,
	transfer_session_id, transfer_amount, time_charge, items_total, final_amount, amount_overridden,
	payment_method, cash_amount, upi_amount, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.DeviceID,
		session.RateProfileID,
		session.Status,
		session.StartedAt,
		session.EndedAt,
		session.PlannedMinutes,
		session.TransferSessionID,
		session.TransferAmount,
		session.TimeCharge,
		session.ItemsTotal,
		session.FinalAmount,
		session.AmountOverridden,
		session.PaymentMethod,
		session.CashAmount,
		session.UPIAmount,
		session.CreatedAt,
		session.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, id, profileID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET rate_profile_id = ?, updated_at = ? WHERE id = ?`,
		profileID,
		now,
		id,
	).Error
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, settlement domain.Settlement) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE sessions
		 SET status = ?, ended_at = ?, time_charge = ?, items_total = ?, final_amount = ?,
		     amount_overridden = ?, payment_method = ?, cash_amount = ?, upi_amount = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusCompleted,
		settlement.EndedAt,
		settlement.TimeCharge,
		settlement.ItemsTotal,
		settlement.FinalAmount,
		settlement.AmountOverridden,
		settlement.PaymentMethod,
		settlement.CashAmount,
		settlement.UPIAmount,
		settlement.EndedAt,
		settlement.SessionID,
		domain.StatusActive,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Session, error) {
	var items []domain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY started_at ASC, id ASC`,
		domain.StatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, filter domain.HistoryFilter) ([]domain.Session, error) {
	var items []domain.Session
	stmt := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("status = ?", domain.StatusCompleted).
		Where("ended_at >= ? AND ended_at < ?", filter.From, filter.To)

	if filter.BeforeAt != nil {
		stmt = stmt.Where("(ended_at < ? OR (ended_at = ? AND id < ?))", *filter.BeforeAt, *filter.BeforeAt, filter.BeforeID)
	}

	err := stmt.Order("ended_at DESC").Order("id DESC").Limit(filter.Limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListTransferCandidates(ctx context.Context, db *gorm.DB) ([]domain.TransferCandidate, error) {
	var items []domain.TransferCandidate
	err := db.WithContext(ctx).Raw(
		`SELECT s.id, s.device_id, d.name AS device_name, s.ended_at, s.final_amount
		 FROM sessions s
		 JOIN devices d ON d.id = s.device_id
		 WHERE s.status = ? AND s.payment_method = ?
		   AND NOT EXISTS (SELECT 1 FROM sessions t WHERE t.transfer_session_id = s.id)
		 ORDER BY s.ended_at DESC, s.id DESC`,
		domain.StatusCompleted,
		domain.PaymentMethodCarryForward,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) TransferClaimed(ctx context.Context, db *gorm.DB, sourceID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM sessions WHERE transfer_session_id = ?`,
		sourceID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.PaymentEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_entries (id, session_id, amount, method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SessionID,
		entry.Amount,
		entry.Method,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentEntry, error) {
	var entry domain.PaymentEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, amount, method, created_at, updated_at
		 FROM payment_entries WHERE id = ?`,
		id,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entry *domain.PaymentEntry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_entries SET amount = ?, method = ?, updated_at = ? WHERE id = ?`,
		entry.Amount,
		entry.Method,
		entry.UpdatedAt,
		entry.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM payment_entries WHERE id = ?`, id)
	return res.RowsAffected, res.Error
}

func (r *repo) ListBySession(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]domain.PaymentEntry, error) {
	var items []domain.PaymentEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, amount, method, created_at, updated_at
		 FROM payment_entries WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SumByMethod(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (domain.Totals, error) {
	var totals domain.Totals
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN method = ? THEN amount ELSE 0 END), 0) AS cash,
		        COALESCE(SUM(CASE WHEN method = ? THEN amount ELSE 0 END), 0) AS upi
		 FROM payment_entries WHERE session_id = ?`,
		domain.MethodCash,
		domain.MethodUPI,
		sessionID,
	).Scan(&totals).Error
	return totals, err
}

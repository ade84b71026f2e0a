package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, line *domain.OrderLine) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_lines (id, session_id, product_id, quantity, unit_price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		line.ID,
		line.SessionID,
		line.ProductID,
		line.Quantity,
		line.UnitPrice,
		line.CreatedAt,
	).Error
}

func (r *repo) LatestLine(ctx context.Context, db *gorm.DB, sessionID *snowflake.ID, productID snowflake.ID) (*domain.OrderLine, error) {
	var line domain.OrderLine
	stmt := db.WithContext(ctx).Model(&domain.OrderLine{}).Where("product_id = ?", productID)
	if sessionID == nil {
		stmt = stmt.Where("session_id IS NULL")
	} else {
		stmt = stmt.Where("session_id = ?", *sessionID)
	}
	// snowflake ids grow with insertion time
	err := stmt.Order("id DESC").Limit(1).Scan(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

func (r *repo) DecrementQuantity(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_lines SET quantity = quantity - 1 WHERE id = ? AND quantity > 1`,
		id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM order_lines WHERE id = ?`, id).Error
}

func (r *repo) ListGrouped(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]domain.GroupedLine, error) {
	var items []domain.GroupedLine
	err := db.WithContext(ctx).Raw(
		`SELECT ol.product_id AS product_id,
		        p.name AS name,
		        SUM(ol.quantity) AS quantity,
		        SUM(ol.quantity * ol.unit_price) AS total
		 FROM order_lines ol
		 JOIN products p ON p.id = ol.product_id
		 WHERE ol.session_id = ?
		 GROUP BY ol.product_id, p.name
		 ORDER BY p.name ASC`,
		sessionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SumTotal(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(quantity * unit_price), 0) FROM order_lines WHERE session_id = ?`,
		sessionID,
	).Scan(&total).Error
	return total, err
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderLine is one purchase. A nil SessionID marks a counter sale.
// UnitPrice is frozen at order time.
type OrderLine struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	SessionID *snowflake.ID `json:"session_id,omitempty" gorm:"index"`
	ProductID snowflake.ID  `json:"product_id" gorm:"not null;index"`
	Quantity  int64         `json:"quantity" gorm:"not null;check:chk_order_lines_quantity,quantity > 0"`
	UnitPrice int64         `json:"unit_price" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
}

func (OrderLine) TableName() string { return "order_lines" }

// GroupedLine merges a session's lines per product.
type GroupedLine struct {
	ProductID snowflake.ID
	Name      string
	Quantity  int64
	Total     int64
}

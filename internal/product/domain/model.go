package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a sellable item. Stock is shared by session orders and counter sales.
type Product struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:varchar(64);not null;uniqueIndex:ux_products_code"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	UnitPrice int64        `json:"unit_price" gorm:"not null"`
	Stock     int64        `json:"stock" gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

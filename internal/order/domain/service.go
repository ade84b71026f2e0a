package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// AddItem takes stock and records the line in one unit of work.
	AddItem(ctx context.Context, tx *gorm.DB, req AddItemRequest) (*LineResponse, error)
	RemoveOneUnit(ctx context.Context, tx *gorm.DB, sessionID *snowflake.ID, productID snowflake.ID) error
	ListGrouped(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) ([]GroupedResponse, error)
	ItemsTotal(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) (int64, error)
	// DirectSale sells several products over the counter, all or nothing.
	DirectSale(ctx context.Context, req DirectSaleRequest) (*DirectSaleResponse, error)
}

type AddItemRequest struct {
	SessionID *snowflake.ID
	ProductID snowflake.ID
	Quantity  int64
}

type SaleItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type DirectSaleRequest struct {
	Items []SaleItem `json:"items" validate:"required,min=1,dive"`
}

type LineResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type GroupedResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Total     int64  `json:"total"`
}

type DirectSaleResponse struct {
	Lines []LineResponse `json:"lines"`
	Total int64          `json:"total"`
}

var (
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidID       = errors.New("invalid_id")
	ErrOutOfStock      = errors.New("out_of_stock")
	ErrLineNotFound    = errors.New("order_line_not_found")
)

package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Restock(ctx context.Context, req RestockRequest) (*Response, error)
	// EnsureByCode creates the product if missing, otherwise updates its name and price.
	// Stock of an existing product is never overwritten.
	EnsureByCode(ctx context.Context, req CreateRequest) (*Response, error)
}

type CreateRequest struct {
	Code      string `json:"code" validate:"required,max=64"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Stock     int64  `json:"stock" validate:"gte=0"`
}

type RestockRequest struct {
	ID       string `json:"-"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

type Response struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrNotFound        = errors.New("product_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrAlreadyExists   = errors.New("product_already_exists")
)

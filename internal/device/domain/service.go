package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// EnsureByName creates the device if missing and keeps its category in sync.
	EnsureByName(ctx context.Context, name string, category Category) (*Response, error)
}

type ListRequest struct {
	Category string
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Category string `json:"category" validate:"required,oneof=CONSOLE BILLIARD BOARD_GAME"`
}

type Response struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Category        Category  `json:"category"`
	Status          Status    `json:"status"`
	ActiveSessionID *string   `json:"active_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidCategory    = errors.New("invalid_category")
	ErrNotFound           = errors.New("device_not_found")
	ErrAlreadyExists      = errors.New("device_already_exists")
	ErrDeviceNotAvailable = errors.New("device_not_available")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service keeps the payment ledger. Session state is checked by the caller;
// a nil tx uses the service's own handle.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, req RecordRequest) (*Response, error)
	Edit(ctx context.Context, tx *gorm.DB, req EditRequest) (*Response, error)
	Delete(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
	Find(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*PaymentEntry, error)
	List(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) ([]Response, error)
	Totals(ctx context.Context, tx *gorm.DB, sessionID snowflake.ID) (Totals, error)
}

type RecordRequest struct {
	SessionID snowflake.ID
	Amount    int64
	Method    string
}

type EditRequest struct {
	ID     snowflake.ID
	Amount int64
	Method string
}

type Response struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Method    Method    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidMethod   = errors.New("invalid_payment_method")
	ErrPaymentNotFound = errors.New("payment_not_found")
)

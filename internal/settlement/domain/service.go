package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	ListTransferCandidates(ctx context.Context) ([]CandidateResponse, error)
	// ClaimTransfer validates a carry-forward source inside tx and returns the carried amount.
	ClaimTransfer(ctx context.Context, tx *gorm.DB, sourceID snowflake.ID) (int64, error)
	// CarryAmount is what a completed carry-forward session leaves unpaid.
	CarryAmount(ctx context.Context, tx *gorm.DB, sourceID snowflake.ID, finalAmount int64) (int64, error)
}

type CandidateResponse struct {
	SessionID   string    `json:"session_id"`
	DeviceID    string    `json:"device_id"`
	DeviceName  string    `json:"device_name"`
	EndedAt     time.Time `json:"ended_at"`
	FinalAmount int64     `json:"final_amount"`
	Paid        int64     `json:"paid"`
	CarryAmount int64     `json:"carry_amount"`
}

var (
	ErrBillTransferAlreadyUsed = errors.New("bill_transfer_already_used")
	ErrInvalidTransferSource   = errors.New("invalid_transfer_source")
	ErrInvalidCashPortion      = errors.New("invalid_cash_portion")
)

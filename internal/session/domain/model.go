package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// PaymentMethod is how a session was settled at checkout.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodSplit        PaymentMethod = "SPLIT"
	PaymentMethodCarryForward PaymentMethod = "CARRY_FORWARD"
)

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodSplit, PaymentMethodCarryForward:
		return m, true
	default:
		return "", false
	}
}

// Session is one timed use of a device. Settlement columns are written once, at checkout.
type Session struct {
	ID                snowflake.ID   `json:"id" gorm:"primaryKey"`
	DeviceID          snowflake.ID   `json:"device_id" gorm:"not null;index"`
	RateProfileID     snowflake.ID   `json:"rate_profile_id" gorm:"not null"`
	Status            Status         `json:"status" gorm:"type:varchar(16);not null;index"`
	StartedAt         time.Time      `json:"started_at" gorm:"not null"`
	EndedAt           *time.Time     `json:"ended_at,omitempty" gorm:"index"`
	PlannedMinutes    *int           `json:"planned_minutes,omitempty"`
	TransferSessionID *snowflake.ID  `json:"transfer_session_id,omitempty" gorm:"uniqueIndex:ux_sessions_transfer_session_id"`
	TransferAmount    int64          `json:"transfer_amount" gorm:"not null;default:0"`
	TimeCharge        int64          `json:"time_charge" gorm:"not null;default:0"`
	ItemsTotal        int64          `json:"items_total" gorm:"not null;default:0"`
	FinalAmount       int64          `json:"final_amount" gorm:"not null;default:0"`
	AmountOverridden  bool           `json:"amount_overridden" gorm:"not null;default:false"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty" gorm:"type:varchar(16)"`
	CashAmount        int64          `json:"cash_amount" gorm:"not null;default:0"`
	UPIAmount         int64          `json:"upi_amount" gorm:"column:upi_amount;not null;default:0"`
	CreatedAt         time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time      `json:"updated_at" gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

func (s Session) Active() bool { return s.Status == StatusActive }

// Settlement is the frozen checkout result written onto a session.
type Settlement struct {
	SessionID        snowflake.ID
	EndedAt          time.Time
	TimeCharge       int64
	ItemsTotal       int64
	FinalAmount      int64
	AmountOverridden bool
	PaymentMethod    PaymentMethod
	CashAmount       int64
	UPIAmount        int64
}

// TransferCandidate is a carry-forward session nobody has claimed yet.
type TransferCandidate struct {
	ID          snowflake.ID
	DeviceID    snowflake.ID
	DeviceName  string
	EndedAt     time.Time
	FinalAmount int64
}

package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Method string

const (
	MethodCash Method = "CASH"
	MethodUPI  Method = "UPI"
)

// ParseMethod normalizes a deposit method. Only CASH and UPI are valid for a single payment.
func ParseMethod(raw string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case MethodCash, MethodUPI:
		return m, true
	default:
		return "", false
	}
}

// PaymentEntry is a deposit against a session's running total.
type PaymentEntry struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	SessionID snowflake.ID `json:"session_id" gorm:"not null;index"`
	Amount    int64        `json:"amount" gorm:"not null;check:chk_payment_entries_amount,amount > 0"`
	Method    Method       `json:"method" gorm:"type:varchar(8);not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (PaymentEntry) TableName() string { return "payment_entries" }

// Totals splits what has been paid so far by method.
type Totals struct {
	Cash int64 `json:"cash"`
	UPI  int64 `json:"upi"`
}

func (t Totals) Paid() int64 { return t.Cash + t.UPI }

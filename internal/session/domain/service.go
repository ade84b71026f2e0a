package domain

import (
	"context"
	"errors"
	"time"

	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	"github.com/smallbiznis/lounge/pkg/db/pagination"
)

type Service interface {
	Start(ctx context.Context, req StartRequest) (*Bill, error)
	SwitchProfile(ctx context.Context, req SwitchProfileRequest) (*Bill, error)
	AddItem(ctx context.Context, req AddItemRequest) (*Bill, error)
	RemoveItem(ctx context.Context, req RemoveItemRequest) (*Bill, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*Bill, error)
	EditPayment(ctx context.Context, req EditPaymentRequest) (*Bill, error)
	DeletePayment(ctx context.Context, req DeletePaymentRequest) (*Bill, error)
	Checkout(ctx context.Context, req CheckoutRequest) (*Bill, error)

	CurrentBill(ctx context.Context, id string) (*Bill, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListActive(ctx context.Context) ([]Bill, error)
	ListHistory(ctx context.Context, req HistoryRequest) (*HistoryResponse, error)
}

type StartRequest struct {
	DeviceID          string  `json:"device_id" validate:"required"`
	RateProfileID     string  `json:"rate_profile_id"`
	PlannedMinutes    *int    `json:"planned_minutes" validate:"omitempty,gt=0"`
	TransferSessionID *string `json:"transfer_session_id"`
}

type SwitchProfileRequest struct {
	SessionID     string `json:"-"`
	RateProfileID string `json:"rate_profile_id" validate:"required"`
}

type AddItemRequest struct {
	SessionID string `json:"-"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type RemoveItemRequest struct {
	SessionID string
	ProductID string
}

type RecordPaymentRequest struct {
	SessionID string `json:"-"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Method    string `json:"method" validate:"required,oneof=CASH UPI"`
}

type EditPaymentRequest struct {
	SessionID string `json:"-"`
	PaymentID string `json:"-"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Method    string `json:"method" validate:"required,oneof=CASH UPI"`
}

type DeletePaymentRequest struct {
	SessionID string
	PaymentID string
}

// CheckoutRequest closes a session. PaymentMethod may be empty only when nothing is due.
type CheckoutRequest struct {
	SessionID           string `json:"-"`
	PaymentMethod       string `json:"payment_method"`
	CashPortion         *int64 `json:"cash_portion" validate:"omitempty,gte=0"`
	FinalAmountOverride *int64 `json:"final_amount_override"`
}

type HistoryRequest struct {
	From time.Time
	To   time.Time
	pagination.Pagination
}

type SegmentLine struct {
	RateProfileID string     `json:"rate_profile_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Minutes       float64    `json:"minutes"`
}

// Bill is the recomputed view of a session. For COMPLETED sessions the amounts are
// the ones frozen at checkout.
type Bill struct {
	SessionID         string         `json:"session_id"`
	DeviceID          string         `json:"device_id"`
	DeviceName        string         `json:"device_name"`
	Status            Status         `json:"status"`
	RateProfileID     string         `json:"rate_profile_id"`
	RateProfileCode   string         `json:"rate_profile_code"`
	ProfileFallback   bool           `json:"profile_fallback,omitempty"`
	StartedAt         time.Time      `json:"started_at"`
	EndedAt           *time.Time     `json:"ended_at,omitempty"`
	PlannedMinutes    *int           `json:"planned_minutes,omitempty"`
	ElapsedMinutes    float64        `json:"elapsed_minutes"`
	Segments          []SegmentLine  `json:"segments"`
	TimeCharge        int64          `json:"time_charge"`
	ItemsTotal        int64          `json:"items_total"`
	TransferSessionID *string        `json:"transfer_session_id,omitempty"`
	TransferAmount    int64          `json:"transfer_amount"`
	Total             int64          `json:"total"`
	AmountOverridden  bool           `json:"amount_overridden"`
	TotalPaid         int64          `json:"total_paid"`
	BalanceDue        int64          `json:"balance_due"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty"`
	CashAmount        int64          `json:"cash_amount"`
	UPIAmount         int64          `json:"upi_amount"`

	Items    []orderdomain.GroupedResponse `json:"items"`
	Payments []paymentdomain.Response      `json:"payments"`
}

type Response struct {
	ID                string         `json:"id"`
	DeviceID          string         `json:"device_id"`
	RateProfileID     string         `json:"rate_profile_id"`
	Status            Status         `json:"status"`
	StartedAt         time.Time      `json:"started_at"`
	EndedAt           *time.Time     `json:"ended_at,omitempty"`
	PlannedMinutes    *int           `json:"planned_minutes,omitempty"`
	TransferSessionID *string        `json:"transfer_session_id,omitempty"`
	TransferAmount    int64          `json:"transfer_amount"`
	TimeCharge        int64          `json:"time_charge"`
	ItemsTotal        int64          `json:"items_total"`
	FinalAmount       int64          `json:"final_amount"`
	AmountOverridden  bool           `json:"amount_overridden"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty"`
	CashAmount        int64          `json:"cash_amount"`
	UPIAmount         int64          `json:"upi_amount"`
}

type HistoryResponse struct {
	Sessions []Response          `json:"sessions"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("session_not_found")
	ErrAlreadyCompleted     = errors.New("session_already_completed")
	ErrMissingPaymentMethod = errors.New("missing_payment_method")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidRange         = errors.New("invalid_range")
	ErrPaymentNotInSession  = errors.New("payment_not_in_session")

	ErrProfileCategoryMismatch = errors.New("rate_profile_category_mismatch")
)

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	segmentdomain "github.com/smallbiznis/lounge/internal/segment/domain"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"github.com/smallbiznis/lounge/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictCode(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrs = []error{
	ErrInvalidRequest,
	devicedomain.ErrInvalidID,
	devicedomain.ErrInvalidName,
	devicedomain.ErrInvalidCategory,
	productdomain.ErrInvalidID,
	productdomain.ErrInvalidCode,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidQuantity,
	ratecatalogdomain.ErrInvalidID,
	ratecatalogdomain.ErrInvalidCode,
	ratecatalogdomain.ErrInvalidName,
	ratecatalogdomain.ErrInvalidCategory,
	ratecatalogdomain.ErrInvalidTiers,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidQuantity,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidMethod,
	sessiondomain.ErrInvalidID,
	sessiondomain.ErrInvalidAmount,
	sessiondomain.ErrInvalidPaymentMethod,
	sessiondomain.ErrMissingPaymentMethod,
	sessiondomain.ErrInvalidRange,
	sessiondomain.ErrProfileCategoryMismatch,
	settlementdomain.ErrInvalidCashPortion,
	settlementdomain.ErrInvalidTransferSource,
	pagination.ErrInvalidPageToken,
}

// validationErrorCode returns the sentinel's own code for bad-input errors.
func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "missing_payment_method", "invalid_payment_method":
		return "payment_method"
	case "invalid_cash_portion":
		return "cash_portion"
	case "invalid_transfer_source":
		return "transfer_session_id"
	case "rate_profile_category_mismatch":
		return "rate_profile_id"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

var conflictErrs = []error{
	ErrConflict,
	devicedomain.ErrAlreadyExists,
	devicedomain.ErrDeviceNotAvailable,
	productdomain.ErrAlreadyExists,
	orderdomain.ErrOutOfStock,
	sessiondomain.ErrAlreadyCompleted,
	segmentdomain.ErrNoOpenSegment,
	settlementdomain.ErrBillTransferAlreadyUsed,
}

func isConflictError(err error) bool {
	for _, target := range conflictErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func conflictCode(err error) string {
	for _, target := range conflictErrs {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, devicedomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, ratecatalogdomain.ErrProfileNotFound),
		errors.Is(err, ratecatalogdomain.ErrNoProfiles),
		errors.Is(err, orderdomain.ErrLineNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, sessiondomain.ErrNotFound),
		errors.Is(err, sessiondomain.ErrPaymentNotInSession),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger's error_type and error_code fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return payload.Type, "internal_error"
	case len(payload.Errors) > 0:
		return payload.Type, payload.Errors[0].Code
	case status == http.StatusConflict:
		return payload.Type, payload.Message
	default:
		return payload.Type, payload.Type
	}
}

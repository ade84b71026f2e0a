package domain

import (
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
)

// Split is the lifetime cash/UPI breakdown stored on a settled session.
type Split struct {
	Cash int64
	UPI  int64
}

// BalanceDue is what is still owed: never negative, never above final.
func BalanceDue(final, paid int64) int64 {
	if final <= 0 {
		return 0
	}
	due := final - paid
	switch {
	case due < 0:
		return 0
	case due > final:
		return final
	default:
		return due
	}
}

// InferMethod labels a checkout with nothing left to collect from the deposits already made.
func InferMethod(paid paymentdomain.Totals) sessiondomain.PaymentMethod {
	switch {
	case paid.Cash > 0 && paid.UPI > 0:
		return sessiondomain.PaymentMethodSplit
	case paid.UPI > 0:
		return sessiondomain.PaymentMethodUPI
	default:
		return sessiondomain.PaymentMethodCash
	}
}

// CloseSplit adds the closing collection of due to the deposits already taken.
// CARRY_FORWARD collects nothing and leaves both fields at zero.
func CloseSplit(method sessiondomain.PaymentMethod, due int64, cashPortion *int64, paid paymentdomain.Totals) (Split, error) {
	switch method {
	case sessiondomain.PaymentMethodCarryForward:
		return Split{}, nil
	case sessiondomain.PaymentMethodCash:
		return Split{Cash: paid.Cash + due, UPI: paid.UPI}, nil
	case sessiondomain.PaymentMethodUPI:
		return Split{Cash: paid.Cash, UPI: paid.UPI + due}, nil
	case sessiondomain.PaymentMethodSplit:
		var cash int64
		if cashPortion != nil {
			cash = *cashPortion
		}
		if cash < 0 || cash > due {
			return Split{}, ErrInvalidCashPortion
		}
		return Split{Cash: paid.Cash + cash, UPI: paid.UPI + (due - cash)}, nil
	default:
		return Split{}, sessiondomain.ErrInvalidPaymentMethod
	}
}

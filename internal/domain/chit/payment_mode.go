package chit

import (
	"strings"

	"github.com/retailerp/chitledger/internal/domain/shared"
)

// PaymentMode is how an installment was paid
type PaymentMode string

const (
	PaymentModeCash       PaymentMode = "Cash"
	PaymentModeCard       PaymentMode = "Card"
	PaymentModeUPI        PaymentMode = "UPI"
	PaymentModeNetBanking PaymentMode = "NetBanking"
	PaymentModeWallet     PaymentMode = "Wallet"
	PaymentModeCredit     PaymentMode = "Credit"
)

// PaymentModes lists every accepted mode in display order
var PaymentModes = []PaymentMode{
	PaymentModeCash, PaymentModeCard, PaymentModeUPI,
	PaymentModeNetBanking, PaymentModeWallet, PaymentModeCredit,
}

// IsValid checks if the payment mode is one of the accepted values
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCard, PaymentModeUPI,
		PaymentModeNetBanking, PaymentModeWallet, PaymentModeCredit:
		return true
	}
	return false
}

// String returns the string representation of PaymentMode
func (m PaymentMode) String() string {
	return string(m)
}

// ParsePaymentMode matches s case-insensitively against the accepted modes
// and returns the canonical spelling.
func ParsePaymentMode(s string) (PaymentMode, error) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentModes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	if s == "" {
		return "", shared.NewValidationError("INVALID_PAYMENT_MODE", "Payment mode is required")
	}
	return "", shared.NewValidationErrorf("INVALID_PAYMENT_MODE", "Payment mode %q is not supported", s)
}

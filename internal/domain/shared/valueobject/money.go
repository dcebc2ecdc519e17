package valueobject

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable rupee amount. All operations return new values.
type Money struct {
	amount decimal.Decimal
}

// NewMoneyINR creates Money in rupees
func NewMoneyINR(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Display formats the amount with lakh/crore grouping ("₹1,25,000.00").
func (m Money) Display() string {
	whole, frac, _ := strings.Cut(m.amount.Abs().StringFixed(2), ".")
	sign := ""
	if m.amount.IsNegative() {
		sign = "-"
	}
	return sign + "₹" + groupIndian(whole) + "." + frac
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// Allocate divides money into n parts to the paisa. Leftover paise go to the
// earliest parts so the parts always sum to the original amount.
func (m Money) Allocate(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}

	n := decimal.NewFromInt(int64(parts))
	base := m.amount.Div(n).Truncate(2)
	remainder := m.amount.Sub(base.Mul(n))
	remainderPaise := remainder.Mul(decimal.NewFromInt(100)).IntPart()
	paisa := decimal.New(1, -2)

	result := make([]Money, parts)
	for i := range parts {
		partAmount := base
		if int64(i) < remainderPaise {
			partAmount = partAmount.Add(paisa)
		}
		result[i] = Money{amount: partAmount}
	}
	return result, nil
}

package chit

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// Customer is the subset of the customer directory the ledger needs
type Customer struct {
	ID    uuid.UUID
	Name  string
	Phone string
}

// NormalizeCustomerName collapses whitespace and capitalises each word
// without lowering the rest ("asha  rao" -> "Asha Rao", "McKay" stays).
func NormalizeCustomerName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return "", shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}
	return cases.Title(language.English, cases.NoLower).String(name), nil
}

// NormalizePhone strips spaces and dashes and checks the digit count
func NormalizePhone(phone string) (string, error) {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if phone == "" {
		return "", shared.NewValidationError("INVALID_PHONE", "Customer phone cannot be empty")
	}
	if !phonePattern.MatchString(phone) {
		return "", shared.NewValidationErrorf("INVALID_PHONE", "Phone %q must have 10 to 15 digits", phone)
	}
	return phone, nil
}

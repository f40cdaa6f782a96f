package enums

import "fmt"

// PaymentType labels what a payment intent is for. It rides along as
// provider metadata and steers reconciliation side effects.
type PaymentType string

const (
	PaymentTypeDues     PaymentType = "dues"
	PaymentTypeDonation PaymentType = "donation"
	PaymentTypeExpense  PaymentType = "expense"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeDues,
	PaymentTypeDonation,
	PaymentTypeExpense,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}

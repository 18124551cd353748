package enums

import "fmt"

// CheckoutStep is the position of a checkout session in the review flow.
// The flow is linear: review -> billing -> success, with billing -> review
// as the only backward edge. Success is terminal.
type CheckoutStep string

const (
	CheckoutStepReview  CheckoutStep = "review"
	CheckoutStepBilling CheckoutStep = "billing"
	CheckoutStepSuccess CheckoutStep = "success"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepReview,
	CheckoutStepBilling,
	CheckoutStepSuccess,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

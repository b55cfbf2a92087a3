package cart

import "errors"

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrQuantityCap   = errors.New("maximum quantity is 5")
	ErrInvalidCoupon = errors.New("invalid coupon code")
	ErrNoSuchItem    = errors.New("no such cart item")
)

type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "customer " + e.Field + " is required"
}

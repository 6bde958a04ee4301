package settlement

import "errors"

var (
	ErrMissingCustomer    = errors.New("a customer must be selected before completing the sale")
	ErrEmptyCart          = errors.New("cart has no items")
	ErrNoTender           = errors.New("enter an amount for at least one payment method")
	ErrOutstandingBalance = errors.New("outstanding balance must be fully paid")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidDiscount    = errors.New("discount value must be greater than zero")
	ErrDuplicateDiscount  = errors.New("discount code already applied")
	ErrLineNotFound       = errors.New("item is not in the cart")
	ErrDiscountNotFound   = errors.New("discount code is not applied")
)

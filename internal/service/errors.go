package service

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrNotEnoughStock      = errors.New("not enough stock")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrBelowMinimum        = errors.New("order total is below the minimum")
	ErrShippingRequired    = errors.New("a shipping method is required")
	ErrAddressRequired     = errors.New("a shipping address is required")
	ErrCountryNotAllowed   = errors.New("cannot ship to this country")
	ErrContactRequired     = errors.New("an email address is required")
	ErrSignInRequired      = errors.New("this email belongs to an account, sign in to check out")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email address already registered")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidStatusChange = errors.New("invalid order status change")
	ErrNoBalanceDue        = errors.New("order has no balance due")
	ErrPaymentOutstanding  = errors.New("order has a payment awaiting capture or confirmation")
)

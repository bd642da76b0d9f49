package service

import "errors"

var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrProductNotFound     = errors.New("product not found")
	ErrSizeUnavailable     = errors.New("size is not available for product")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotPending     = errors.New("order is not pending")
	ErrOrderAlreadyPaid    = errors.New("order is already paid")
	ErrOrderCancelled      = errors.New("order is cancelled")
	ErrInvalidPayload      = errors.New("invalid invoice payload")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyAdmin        = errors.New("user is already admin")
	ErrNotAdmin            = errors.New("user is not admin")
	ErrSuperAdmin          = errors.New("super admin cannot be dismissed")
	ErrForbidden           = errors.New("forbidden")
	ErrUnknownProductField = errors.New("unknown product field")
)

package booking

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrForbidden         = errors.New("not allowed for this booking")
	ErrListingNotFound   = errors.New("listing not found")
	ErrListingInactive   = errors.New("listing is not bookable")
	ErrGroupTooLarge     = errors.New("party exceeds max group size")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrConflict          = errors.New("booking changed concurrently")
	ErrRefundFailed      = errors.New("refund failed, booking not cancelled")
)

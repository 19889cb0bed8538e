package review

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("review not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrForbidden        = errors.New("not allowed for this review")
	ErrNotCompleted     = errors.New("only completed bookings can be reviewed")
	ErrAlreadyReviewed  = errors.New("booking already has a review")
	ErrEditWindowClosed = errors.New("review can no longer be edited")
)

package payment

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("payment not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("not allowed for this payment")
	ErrNotPayable      = errors.New("booking cannot be paid in its current state")
	ErrAlreadyActive   = errors.New("booking already has an active payment")
	ErrInvalidAmount   = errors.New("refund amount exceeds what remains")
	ErrNotRefundable   = errors.New("payment is not in a refundable state")
	ErrBadSignature    = errors.New("webhook signature verification failed")
	ErrGatewayFailed   = errors.New("payment gateway call failed")
)

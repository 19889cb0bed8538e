package listing

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("listing not found")
	ErrForbidden  = errors.New("not allowed for this listing")
)

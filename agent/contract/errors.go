package contract

import "errors"

var (
	ErrModelInvoke = errors.New("model invoke failed")
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("capability unavailable")
)

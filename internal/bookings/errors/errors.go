package errors

import "errors"

var (
	ErrNotFound        = errors.New("booking not found")
	ErrInvalidID       = errors.New("invalid booking id")
	ErrLockNotAcquired = errors.New("admission lock not acquired")
)

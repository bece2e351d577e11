package plugin_errors

import (
	"errors"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooLarge           = errors.New("file too large")
	ErrQueueEmpty         = errors.New("queue empty")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotConfigured      = errors.New("not configured")
	ErrUnknownTask        = errors.New("unknown task")
)

package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound       = errors.New("entity not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotReady       = errors.New("job has no result yet")
	ErrNoRecipient    = errors.New("job has no recipient email")
	ErrProviderConfig = errors.New("render provider is not configured")
)

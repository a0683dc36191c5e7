package types

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrVerificationFailed = errors.New("verification failed")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrStorageFull        = errors.New("storage full")
	ErrUnauthorized       = errors.New("unauthorized access")
)

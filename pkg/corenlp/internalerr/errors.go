package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrUnresolvedLanguage = errors.New("unresolved language")
	ErrModelNotFound      = errors.New("model file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrGatewayClosed      = errors.New("gateway closed")
	ErrNotFound           = errors.New("not found")
)

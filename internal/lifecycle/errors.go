package lifecycle

import "errors"

// Every Manager error wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrExternalTool      = errors.New("external tool error")
	ErrIO                = errors.New("io error")
	ErrNotFound          = errors.New("not found")
)

package params

import "errors"

var (
	ErrParamsNotFound   = errors.New("parameters file not found")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

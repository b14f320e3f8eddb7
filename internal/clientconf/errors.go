package clientconf

import "errors"

var (
	ErrClientFileNotFound  = errors.New("client config file not found")
	ErrMalformedClientFile = errors.New("malformed client config file")
	ErrUnsafeClientName    = errors.New("client name cannot be used in a file name")
)

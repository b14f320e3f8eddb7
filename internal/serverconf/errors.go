package serverconf

import "errors"

var (
	ErrDocumentNotFound   = errors.New("server config document not found")
	ErrSectionNotFound    = errors.New("peer section not found")
	ErrAddressesExhausted = errors.New("no available addresses in pool")
)

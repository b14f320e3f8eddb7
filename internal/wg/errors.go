package wg

import "errors"

var (
	ErrKeyGeneration = errors.New("key generation failed")
	ErrKeyMismatch   = errors.New("derived public key does not match private key")
	ErrDeviceRead    = errors.New("failed to read wireguard device state")
)

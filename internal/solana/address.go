package solana

import (
	"errors"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress indicates a malformed wallet address, rejected before any
// network call.
var ErrInvalidAddress = errors.New("invalid wallet address")

// IsValidAddress reports whether the string is a well-formed Solana address:
// base58 text decoding to exactly 32 bytes.
func IsValidAddress(address string) bool {
	raw, err := base58.Decode(address)
	return err == nil && len(raw) == 32
}

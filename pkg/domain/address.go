// Package domain holds the typed identifiers and value objects shared across
// modules. Constructors enforce invariants at trust boundaries; direct
// conversion bypasses validation and is reserved for internal code.
package domain

import (
	"encoding/hex"
	"strings"

	dErrors "zkdao/pkg/domain-errors"
)

// Address is a 20-byte account identifier. The zero value is the reserved
// sentinel: it never names a real account and is rejected at parse time.
type Address [20]byte

// ZeroAddress is the sentinel account. Comparisons against it gate
// member-existence checks.
var ZeroAddress Address

// ParseAddress constructs an Address from external input.
//
// Errors: returns CodeInvalidAddress when the value is empty, malformed, or
// the zero address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidAddress, "address cannot be empty")
	}
	hexPart, ok := strings.CutPrefix(s, "0x")
	if !ok {
		hexPart, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidAddress, "address must have 0x prefix")
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil || len(raw) != 20 {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidAddress, "address must be 20 hex-encoded bytes")
	}
	var a Address
	copy(a[:], raw)
	if a.IsZero() {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidAddress, "zero address is reserved")
	}
	return a, nil
}

// AddressFromBytes constructs an Address from a raw 20-byte slice.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != 20 {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidAddress, "address must be exactly 20 bytes")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// IsZero reports whether the address is the reserved sentinel.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String renders the address as lowercase 0x-prefixed hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler so addresses serialize as
// hex strings in JSON bodies and map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with full validation.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

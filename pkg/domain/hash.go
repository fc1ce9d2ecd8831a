package domain

import (
	"encoding/hex"
	"strings"

	dErrors "zkdao/pkg/domain-errors"
)

// Hash32 is a 32-byte digest. The zero value is the sentinel "no hash";
// proof gating rejects it without consulting storage.
type Hash32 [32]byte

// ZeroHash is the sentinel digest.
var ZeroHash Hash32

// ParseHash32 constructs a Hash32 from external 0x-prefixed hex input.
// Unlike ParseAddress it accepts the zero hash: callers that must reject the
// sentinel check IsZero explicitly, because "no hash yet" is a readable state.
func ParseHash32(s string) (Hash32, error) {
	s = strings.TrimSpace(s)
	hexPart, ok := strings.CutPrefix(s, "0x")
	if !ok {
		hexPart, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return ZeroHash, dErrors.New(dErrors.CodeInvalidInput, "hash must have 0x prefix")
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil || len(raw) != 32 {
		return ZeroHash, dErrors.New(dErrors.CodeInvalidInput, "hash must be 32 hex-encoded bytes")
	}
	var h Hash32
	copy(h[:], raw)
	return h, nil
}

// Hash32FromBytes constructs a Hash32 from a raw 32-byte slice.
func Hash32FromBytes(b []byte) (Hash32, error) {
	if len(b) != 32 {
		return ZeroHash, dErrors.New(dErrors.CodeInvalidInput, "hash must be exactly 32 bytes")
	}
	var h Hash32
	copy(h[:], b)
	return h, nil
}

// IsZero reports whether the digest is the sentinel.
func (h Hash32) IsZero() bool {
	return h == ZeroHash
}

// String renders the digest as lowercase 0x-prefixed hex.
func (h Hash32) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	parsed, err := ParseHash32(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

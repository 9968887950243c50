package traits

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// FormatWord renders a packed word as fixed-width hexadecimal: "0x" followed
// by exactly 64 lowercase digits. The fixed width makes stored words
// byte-for-byte comparable and preserves leading zeros exactly.
func FormatWord(w uint256.Int) string {
	b := w.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

// ParseWord decodes a 0x-prefixed hexadecimal word of at most 64 digits.
//
// Leading zeros are accepted: packed words are fixed-width bit strings, not
// canonical quantities, so "0x01" and "0x1" parse identically.
func ParseWord(s string) (uint256.Int, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return uint256.Int{}, fmt.Errorf("parsing word %q: missing 0x prefix", s)
	}
	if digits == "" {
		return uint256.Int{}, fmt.Errorf("parsing word %q: no digits", s)
	}
	if len(digits) > 64 {
		return uint256.Int{}, fmt.Errorf("parsing word %q: %d digits exceeds 256 bits", s, len(digits))
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("parsing word %q: %w", s, err)
	}
	var w uint256.Int
	w.SetBytes(raw)
	return w, nil
}

// Package seed provides 256-bit generation seeds: parsing, rendering,
// random draw, and the entropy-mix derivation used when a caller does not
// supply a seed of their own.
package seed

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Parse decodes a 0x-prefixed hexadecimal seed of at most 64 digits.
//
// Leading zeros are accepted: a seed is a fixed-width bit string, not a
// canonical quantity, so "0x0a" and "0xa" denote the same seed.
func Parse(s string) (uint256.Int, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return uint256.Int{}, fmt.Errorf("parsing seed %q: missing 0x prefix", s)
	}
	if digits == "" {
		return uint256.Int{}, fmt.Errorf("parsing seed %q: no digits", s)
	}
	if len(digits) > 64 {
		return uint256.Int{}, fmt.Errorf("parsing seed %q: %d digits exceeds 256 bits", s, len(digits))
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("parsing seed %q: %w", s, err)
	}
	var sd uint256.Int
	sd.SetBytes(raw)
	return sd, nil
}

// Hex renders a seed in canonical form: "0x" followed by exactly 64
// lowercase digits. Parse(Hex(sd)) always reproduces sd.
func Hex(sd uint256.Int) string {
	b := sd.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

// New draws a uniformly random seed from crypto/rand.
func New() (uint256.Int, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint256.Int{}, fmt.Errorf("reading random seed: %w", err)
	}
	var sd uint256.Int
	sd.SetBytes(buf[:])
	return sd, nil
}

// FromEntropy derives a seed by hashing ambient inputs with legacy
// Keccak-256: a timestamp, a randomness-beacon payload, a sequence nonce,
// and a caller label, concatenated in that order with fixed-width integers.
//
// The derivation is deterministic in its inputs. Unless beacon carries
// genuinely unpredictable bytes, the output is guessable by anyone who can
// observe or influence the inputs; treat it as a convenience for cosmetic
// generation, never as a security primitive.
func FromEntropy(at time.Time, beacon []byte, nonce uint64, caller string) uint256.Int {
	h := sha3.NewLegacyKeccak256()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.UnixNano()))
	h.Write(ts[:])
	h.Write(beacon)

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	h.Write(n[:])
	h.Write([]byte(caller))

	var sd uint256.Int
	sd.SetBytes(h.Sum(nil))
	return sd
}

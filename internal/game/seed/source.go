package seed

import (
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
)

// Source supplies seeds for mints where the caller did not provide one.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// Seed returns the next seed.
	Seed() (uint256.Int, error)
}

// CryptoSource draws every seed independently from crypto/rand.
type CryptoSource struct{}

// NewCryptoSource returns a Source backed by the operating system CSPRNG.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Seed implements Source.
func (s *CryptoSource) Seed() (uint256.Int, error) {
	return New()
}

// EntropySource derives seeds from wall-clock time, a fixed beacon payload,
// a strictly increasing nonce, and a caller label.
//
// Seeds are unique per draw (the nonce advances atomically) but NOT
// unpredictable; see FromEntropy. It exists to reproduce environment-mixed
// seeding where that behavior is wanted, with CryptoSource as the default.
type EntropySource struct {
	label  string
	beacon []byte
	nonce  atomic.Uint64
	now    func() time.Time
}

// NewEntropySource returns an EntropySource for the given caller label and
// beacon payload. A nil beacon is valid and simply contributes no bytes.
func NewEntropySource(label string, beacon []byte) *EntropySource {
	return &EntropySource{label: label, beacon: beacon, now: time.Now}
}

// Seed implements Source.
func (s *EntropySource) Seed() (uint256.Int, error) {
	return FromEntropy(s.now(), s.beacon, s.nonce.Add(1), s.label), nil
}

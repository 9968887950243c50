package seed_test

import (
	"sync"
	"testing"

	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCryptoSource verifies adjacent draws are distinct and error free.
func TestCryptoSource(t *testing.T) {
	src := seed.NewCryptoSource()
	a, err := src.Seed()
	require.NoError(t, err)
	b, err := src.Seed()
	require.NoError(t, err)
	assert.False(t, a.Eq(&b))
}

// TestEntropySource_DistinctDraws verifies the advancing nonce makes every
// draw unique even when the clock and beacon stand still.
func TestEntropySource_DistinctDraws(t *testing.T) {
	src := seed.NewEntropySource("trainer-1", nil)

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		sd, err := src.Seed()
		require.NoError(t, err)
		h := seed.Hex(sd)
		require.False(t, seen[h], "duplicate seed on draw %d", i)
		seen[h] = true
	}
}

// TestEntropySource_Concurrent verifies concurrent draws never collide, the
// contract that lets one source back many simultaneous mints.
func TestEntropySource_Concurrent(t *testing.T) {
	src := seed.NewEntropySource("trainer-1", []byte{1, 2, 3})

	const workers = 8
	const draws = 32

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint256.Int, 0, draws)
			for i := 0; i < draws; i++ {
				sd, err := src.Seed()
				assert.NoError(t, err)
				local = append(local, sd)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, sd := range local {
				h := seed.Hex(sd)
				assert.False(t, seen[h], "duplicate concurrent seed")
				seen[h] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*draws)
}

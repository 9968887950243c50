package monster

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Base stat floors and the bit offsets of each seed slice. Each attribute
// reads its own right-shifted window of the seed, so the low 64 bits fully
// determine a monster; the shift amounts are a fixed part of the format.
const (
	hpBase      = 30
	attackBase  = 10
	defenseBase = 10
	speedBase   = 10

	statSpread = 100 // seed-derived stat offset lies in [0, 100)

	shiftSecondaryType = 8
	shiftHP            = 16
	shiftAttack        = 24
	shiftDefense       = 32
	shiftSpeed         = 40
	shiftNamePrefix    = 48
	shiftNameSuffix    = 56
)

// Name fragments, indexed by seed slices. Order and length are part of the
// format.
var (
	namePrefixes = [...]string{
		"Flame", "Aqua", "Leaf", "Volt", "Mind", "Shadow", "Drake", "Wild",
	}
	nameSuffixes = [...]string{
		"mon", "chu", "zard", "rex", "wing", "claw", "tail", "fang",
	}
)

// seedSlice extracts (seed >> shift) mod m as a uint64.
//
// The reduction runs over the full 256-bit value, not a truncation of it:
// for moduli that are not powers of two (the rarity and stat spread of 100)
// the high bits of the seed change the residue.
//
// Precondition: m must be non-zero and small enough that the residue fits a
// uint64; every modulus in this package is at most 100.
func seedSlice(sd *uint256.Int, shift uint, m uint64) uint64 {
	var window, residue uint256.Int
	window.Rsh(sd, shift)
	residue.Mod(&window, uint256.NewInt(m))
	return residue.Uint64()
}

// statValue composes one stat: base floor + seed offset + rarity bonus.
//
// Postcondition: the result fits in 8 bits. The widest combination is
// 30 + 99 + 80 = 209; anything larger means a corrupted constant table, and
// the panic here is preferred over a silently wrapped stat.
func statValue(base, offset, bonus uint64) uint8 {
	v := base + offset + bonus
	if v > 255 {
		panic(fmt.Sprintf("monster: stat value %d exceeds 8 bits", v))
	}
	return uint8(v)
}

// Generate derives a complete Monster from a 256-bit seed.
//
// Generate is pure and total: the same seed always yields the same monster,
// every seed yields some monster, and no error paths exist. Uniformly random
// seeds give approximately uniform types and stat offsets, and the weighted
// rarity split of 50/25/15/8/2. The output is only as unpredictable as the
// seed itself.
//
// Postcondition: both affinities and the rarity are valid domain values, and
// the returned Seed equals sd verbatim.
func Generate(sd uint256.Int) Monster {
	rarity := RarityFromRoll(seedSlice(&sd, 0, rollDomain))
	bonus := rarity.StatBonus()

	prefix := namePrefixes[seedSlice(&sd, shiftNamePrefix, uint64(len(namePrefixes)))]
	suffix := nameSuffixes[seedSlice(&sd, shiftNameSuffix, uint64(len(nameSuffixes)))]

	return Monster{
		Name:          prefix + suffix,
		PrimaryType:   ElementType(seedSlice(&sd, 0, ElementCount)),
		SecondaryType: ElementType(seedSlice(&sd, shiftSecondaryType, ElementCount)),
		HP:            statValue(hpBase, seedSlice(&sd, shiftHP, statSpread), bonus),
		Attack:        statValue(attackBase, seedSlice(&sd, shiftAttack, statSpread), bonus),
		Defense:       statValue(defenseBase, seedSlice(&sd, shiftDefense, statSpread), bonus),
		Speed:         statValue(speedBase, seedSlice(&sd, shiftSpeed, statSpread), bonus),
		Rarity:        rarity,
		Seed:          sd,
	}
}

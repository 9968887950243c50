// Package traits implements the packed trait word: a dense 256-bit encoding
// of a monster's numeric traits with an exact inverse for every packed field.
package traits

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/holiman/uint256"
)

// Bit offsets of each field inside a packed word, least-significant first.
// The layout is a fixed external format shared with storage and clients;
// changing any offset breaks every previously persisted word.
const (
	shiftPrimary   = 0
	shiftSecondary = 8
	shiftHP        = 16
	shiftAttack    = 24
	shiftDefense   = 32
	shiftSpeed     = 40
	shiftRarity    = 48
	shiftSeedLow   = 56

	seedLowBits = 32

	// UsedBits is the populated span of a packed word. Encode zeroes bits
	// [UsedBits, 256) and Decode ignores them.
	UsedBits = shiftSeedLow + seedLowBits
)

var (
	// ErrElementRange reports an element ordinal outside [0, 7].
	ErrElementRange = errors.New("element type out of range")
	// ErrRarityRange reports a rarity ordinal outside [0, 4].
	ErrRarityRange = errors.New("rarity out of range")
)

// Traits is the raw field tuple carried by a packed word.
//
// Enum-like fields are plain bytes, not domain types: Decode never rejects a
// word, so a word that did not come from Encode can carry ordinals outside
// the nominal domains. Call Validate before trusting a word that crossed a
// storage or network boundary.
type Traits struct {
	PrimaryType   uint8
	SecondaryType uint8
	HP            uint8
	Attack        uint8
	Defense       uint8
	Speed         uint8
	Rarity        uint8
	SeedLow32     uint32
}

// Validate checks the enum-like fields against their domains.
//
// Postcondition: a nil return means the tuple could have been produced by
// Encode from a well-formed monster.
func (t Traits) Validate() error {
	if !monster.ElementType(t.PrimaryType).Valid() {
		return fmt.Errorf("primary type %d: %w", t.PrimaryType, ErrElementRange)
	}
	if !monster.ElementType(t.SecondaryType).Valid() {
		return fmt.Errorf("secondary type %d: %w", t.SecondaryType, ErrElementRange)
	}
	if !monster.Rarity(t.Rarity).Valid() {
		return fmt.Errorf("rarity %d: %w", t.Rarity, ErrRarityRange)
	}
	return nil
}

// Encode packs m's numeric traits into a single 256-bit word.
//
// Layout, least-significant bit first: primary(8) | secondary(8) | hp(8) |
// attack(8) | defense(8) | speed(8) | rarity(8) | seed low 32 bits. The
// remaining 168 bits are zero. The name and the upper 224 seed bits are
// deliberately not representable: the word is a compact numeric projection,
// not a full serialization.
//
// Encode fails fast on an out-of-range element or rarity instead of
// truncating, since a truncated ordinal would decode to a different, valid-
// looking monster.
func Encode(m monster.Monster) (uint256.Int, error) {
	if !m.PrimaryType.Valid() {
		return uint256.Int{}, fmt.Errorf("packing primary type %d: %w", m.PrimaryType, ErrElementRange)
	}
	if !m.SecondaryType.Valid() {
		return uint256.Int{}, fmt.Errorf("packing secondary type %d: %w", m.SecondaryType, ErrElementRange)
	}
	if !m.Rarity.Valid() {
		return uint256.Int{}, fmt.Errorf("packing rarity %d: %w", m.Rarity, ErrRarityRange)
	}

	// The seven single-byte fields all sit below bit 56 and assemble in one
	// uint64. The seed slice straddles the 64-bit limb boundary and is OR-ed
	// in with wide shifts.
	var w uint256.Int
	w.SetUint64(uint64(m.PrimaryType)<<shiftPrimary |
		uint64(m.SecondaryType)<<shiftSecondary |
		uint64(m.HP)<<shiftHP |
		uint64(m.Attack)<<shiftAttack |
		uint64(m.Defense)<<shiftDefense |
		uint64(m.Speed)<<shiftSpeed |
		uint64(m.Rarity)<<shiftRarity)

	var seedLow uint256.Int
	seedLow.SetUint64(m.Seed.Uint64() & (1<<seedLowBits - 1))
	seedLow.Lsh(&seedLow, shiftSeedLow)
	w.Or(&w, &seedLow)
	return w, nil
}

// Decode extracts the packed fields from w.
//
// Decode is total: any 256-bit word decodes without error, including words
// never produced by Encode. Bits above the packed span are ignored, and no
// domain validation is applied; see Traits.Validate.
//
// Postcondition: for any monster m accepted by Encode,
// Decode(Encode(m)) reproduces m's numeric traits and the low 32 seed bits.
func Decode(w uint256.Int) Traits {
	low := w.Uint64()
	var high uint256.Int
	high.Rsh(&w, shiftSeedLow)

	return Traits{
		PrimaryType:   uint8(low >> shiftPrimary),
		SecondaryType: uint8(low >> shiftSecondary),
		HP:            uint8(low >> shiftHP),
		Attack:        uint8(low >> shiftAttack),
		Defense:       uint8(low >> shiftDefense),
		Speed:         uint8(low >> shiftSpeed),
		Rarity:        uint8(low >> shiftRarity),
		SeedLow32:     uint32(high.Uint64()),
	}
}

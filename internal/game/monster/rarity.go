package monster

import "fmt"

// Rarity is a monster's rarity tier. Higher tiers are rarer and grant a
// larger flat bonus to every combat stat.
type Rarity uint8

// The five rarity tiers, in ascending order of scarcity.
const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
)

// RarityCount is the size of the rarity domain.
const RarityCount = 5

var rarityNames = [RarityCount]string{
	"Common", "Uncommon", "Rare", "Epic", "Legendary",
}

// Tier boundaries over a [0, 100) weighted roll: 50% Common, 25% Uncommon,
// 15% Rare, 8% Epic, 2% Legendary.
const (
	uncommonFloor  = 50
	rareFloor      = 75
	epicFloor      = 90
	legendaryFloor = 98
	rollDomain     = 100
)

// Valid reports whether r is one of the five defined tiers.
func (r Rarity) Valid() bool {
	return r < RarityCount
}

// String returns the display name for r, or "Rarity(n)" for out-of-range
// ordinals.
func (r Rarity) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rarity(%d)", uint8(r))
	}
	return rarityNames[r]
}

// StatBonus returns the flat bonus this tier adds to every stat: tier * 20.
func (r Rarity) StatBonus() uint64 {
	return uint64(r) * 20
}

// RarityFromRoll maps a weighted roll to its tier.
//
// Precondition: roll < 100. Callers derive the roll as seed mod 100, so an
// out-of-range value indicates a caller bug and panics.
// Postcondition: [0,50) yields Common, [50,75) Uncommon, [75,90) Rare,
// [90,98) Epic, [98,100) Legendary.
func RarityFromRoll(roll uint64) Rarity {
	if roll >= rollDomain {
		panic(fmt.Sprintf("monster: RarityFromRoll precondition violated: roll %d not in [0, 100)", roll))
	}
	switch {
	case roll < uncommonFloor:
		return Common
	case roll < rareFloor:
		return Uncommon
	case roll < epicFloor:
		return Rare
	case roll < legendaryFloor:
		return Epic
	default:
		return Legendary
	}
}

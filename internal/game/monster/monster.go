package monster

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Monster is the complete output of the generator for one seed.
//
// Every field is a pure function of Seed; the struct carries the seed
// verbatim so the monster can be re-derived and audited later. Stats fit in
// 8 bits: the widest reachable value is 30 + 99 + 80 = 209.
type Monster struct {
	Name          string
	PrimaryType   ElementType
	SecondaryType ElementType
	HP            uint8
	Attack        uint8
	Defense       uint8
	Speed         uint8
	Rarity        Rarity
	Seed          uint256.Int
}

// DualTyped reports whether the monster's two affinities differ.
func (m Monster) DualTyped() bool {
	return m.PrimaryType != m.SecondaryType
}

// TypeLine renders the affinity pair for display, collapsing mono-typed
// monsters to a single name.
func (m Monster) TypeLine() string {
	if !m.DualTyped() {
		return m.PrimaryType.String()
	}
	return m.PrimaryType.String() + "/" + m.SecondaryType.String()
}

// Describe returns a one-line human-readable summary suitable for logs and
// CLI output.
func (m Monster) Describe() string {
	return fmt.Sprintf("%s [%s %s] HP:%d ATK:%d DEF:%d SPD:%d",
		m.Name, m.Rarity, m.TypeLine(), m.HP, m.Attack, m.Defense, m.Speed)
}

// Package monster defines the monster domain model and the deterministic
// seed-driven generator that produces it.
package monster

import "fmt"

// ElementType is a monster's elemental affinity.
//
// Ordinals are part of the packed trait layout and the generator's modular
// arithmetic; they must never be reordered or renumbered.
type ElementType uint8

// The eight elemental affinities.
const (
	Fire ElementType = iota
	Water
	Grass
	Electric
	Psychic
	Dark
	Dragon
	Normal
)

// ElementCount is the size of the affinity domain.
const ElementCount = 8

var elementNames = [ElementCount]string{
	"Fire", "Water", "Grass", "Electric", "Psychic", "Dark", "Dragon", "Normal",
}

// Valid reports whether e is one of the eight defined affinities.
func (e ElementType) Valid() bool {
	return e < ElementCount
}

// String returns the display name for e.
//
// Out-of-range ordinals (possible when a raw byte is cast without validation)
// render as "ElementType(n)" rather than panicking.
func (e ElementType) String() string {
	if !e.Valid() {
		return fmt.Sprintf("ElementType(%d)", uint8(e))
	}
	return elementNames[e]
}

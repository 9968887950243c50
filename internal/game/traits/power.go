package traits

import (
	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/holiman/uint256"
)

// powerScore is the shared arithmetic core: (hp+atk+def+spd) * (rarity+1).
// The widest possible product, 4*255*256, fits comfortably in a uint64.
func powerScore(hp, attack, defense, speed, rarity uint8) uint256.Int {
	total := uint64(hp) + uint64(attack) + uint64(defense) + uint64(speed)
	var p uint256.Int
	p.SetUint64(total * (uint64(rarity) + 1))
	return p
}

// Power computes a monster's composite power score: the stat total scaled by
// the rarity multiplier (rarity ordinal + 1).
func Power(m monster.Monster) uint256.Int {
	return powerScore(m.HP, m.Attack, m.Defense, m.Speed, uint8(m.Rarity))
}

// PowerFromPacked computes the power score directly from a packed word,
// without materializing a Monster.
//
// Postcondition: for any monster m accepted by Encode,
// PowerFromPacked(Encode(m)) equals Power(m).
func PowerFromPacked(w uint256.Int) uint256.Int {
	t := Decode(w)
	return powerScore(t.HP, t.Attack, t.Defense, t.Speed, t.Rarity)
}

// PowerBatch computes the power score of each packed word, preserving input
// order. An empty or nil input yields an empty slice.
func PowerBatch(words []uint256.Int) []uint256.Int {
	out := make([]uint256.Int, len(words))
	for i := range words {
		out[i] = PowerFromPacked(words[i])
	}
	return out
}

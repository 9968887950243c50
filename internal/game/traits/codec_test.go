package traits_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// specimen is a hand-packed reference monster. Its packed word was assembled
// byte by byte on paper: 05 | 03 | 64 | 50 | 3c | 5a | 03 | 89abcdef,
// least-significant byte first.
func specimen() monster.Monster {
	return monster.Monster{
		Name:          "Darkzard",
		PrimaryType:   monster.Dark,     // ordinal 5
		SecondaryType: monster.Electric, // ordinal 3
		HP:            100,
		Attack:        80,
		Defense:       60,
		Speed:         90,
		Rarity:        monster.Epic, // ordinal 3
		Seed:          *uint256.NewInt(0x0123456789ABCDEF),
	}
}

const specimenHex = "0x" +
	"000000000000000000000000000000000000000000" + // 42 zero digits above bit 88
	"89abcdef035a3c50640305"

// TestEncode_SpecimenWord verifies the exact bit layout against the
// hand-assembled word.
func TestEncode_SpecimenWord(t *testing.T) {
	w, err := traits.Encode(specimen())
	require.NoError(t, err)
	assert.Equal(t, specimenHex, traits.FormatWord(w))
}

// TestDecode_SpecimenWord verifies the inverse direction from the same
// hand-assembled word.
func TestDecode_SpecimenWord(t *testing.T) {
	w, err := traits.ParseWord(specimenHex)
	require.NoError(t, err)

	got := traits.Decode(w)
	assert.Equal(t, traits.Traits{
		PrimaryType:   5,
		SecondaryType: 3,
		HP:            100,
		Attack:        80,
		Defense:       60,
		Speed:         90,
		Rarity:        3,
		SeedLow32:     0x89ABCDEF,
	}, got)
	assert.NoError(t, got.Validate())
}

// TestEncode_RejectsOutOfRange verifies Encode fails fast instead of
// truncating ordinals into the valid domain.
func TestEncode_RejectsOutOfRange(t *testing.T) {
	m := specimen()
	m.PrimaryType = monster.ElementType(8)
	_, err := traits.Encode(m)
	require.ErrorIs(t, err, traits.ErrElementRange)

	m = specimen()
	m.SecondaryType = monster.ElementType(255)
	_, err = traits.Encode(m)
	require.ErrorIs(t, err, traits.ErrElementRange)

	m = specimen()
	m.Rarity = monster.Rarity(5)
	_, err = traits.Encode(m)
	require.ErrorIs(t, err, traits.ErrRarityRange)
}

// TestRoundTrip verifies Decode inverts Encode for arbitrary valid monsters:
// every packed field and the low 32 seed bits survive exactly.
func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "seed")
		var sd uint256.Int
		sd.SetBytes(raw)

		m := monster.Monster{
			PrimaryType:   monster.ElementType(rapid.Uint8Range(0, 7).Draw(rt, "primary")),
			SecondaryType: monster.ElementType(rapid.Uint8Range(0, 7).Draw(rt, "secondary")),
			HP:            rapid.Byte().Draw(rt, "hp"),
			Attack:        rapid.Byte().Draw(rt, "attack"),
			Defense:       rapid.Byte().Draw(rt, "defense"),
			Speed:         rapid.Byte().Draw(rt, "speed"),
			Rarity:        monster.Rarity(rapid.Uint8Range(0, 4).Draw(rt, "rarity")),
			Seed:          sd,
		}

		w, err := traits.Encode(m)
		require.NoError(rt, err)

		got := traits.Decode(w)
		require.Equal(rt, uint8(m.PrimaryType), got.PrimaryType)
		require.Equal(rt, uint8(m.SecondaryType), got.SecondaryType)
		require.Equal(rt, m.HP, got.HP)
		require.Equal(rt, m.Attack, got.Attack)
		require.Equal(rt, m.Defense, got.Defense)
		require.Equal(rt, m.Speed, got.Speed)
		require.Equal(rt, uint8(m.Rarity), got.Rarity)
		require.Equal(rt, uint32(sd.Uint64()), got.SeedLow32, "low 32 seed bits")
		require.NoError(rt, got.Validate())
	})
}

// TestRoundTrip_GeneratedMonsters runs the round trip over generator output,
// the shape that feeds Encode in production.
func TestRoundTrip_GeneratedMonsters(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "seed")
		var sd uint256.Int
		sd.SetBytes(raw)

		m := monster.Generate(sd)
		w, err := traits.Encode(m)
		require.NoError(rt, err)

		got := traits.Decode(w)
		require.Equal(rt, m.HP, got.HP)
		require.Equal(rt, m.Attack, got.Attack)
		require.Equal(rt, m.Defense, got.Defense)
		require.Equal(rt, m.Speed, got.Speed)
		require.Equal(rt, uint8(m.Rarity), got.Rarity)
		require.NoError(rt, got.Validate())
	})
}

// TestDecode_Total decodes arbitrary 256-bit words and checks every field
// against the raw big-endian byte layout. No input may fail or panic.
func TestDecode_Total(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "word")
		var w uint256.Int
		w.SetBytes(raw)

		got := traits.Decode(w)

		// raw is big-endian: raw[31] is the least significant byte.
		require.Equal(rt, raw[31], got.PrimaryType)
		require.Equal(rt, raw[30], got.SecondaryType)
		require.Equal(rt, raw[29], got.HP)
		require.Equal(rt, raw[28], got.Attack)
		require.Equal(rt, raw[27], got.Defense)
		require.Equal(rt, raw[26], got.Speed)
		require.Equal(rt, raw[25], got.Rarity)
		require.Equal(rt, binary.BigEndian.Uint32(raw[21:25]), got.SeedLow32)
	})
}

// TestDecode_IgnoresHighBits verifies bits above the packed span never leak
// into the decoded tuple or the power score.
func TestDecode_IgnoresHighBits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "seed")
		var sd uint256.Int
		sd.SetBytes(raw)
		m := monster.Generate(sd)

		clean, err := traits.Encode(m)
		require.NoError(rt, err)

		junkBytes := rapid.SliceOfN(rapid.Byte(), 21, 21).Draw(rt, "junk")
		var junk uint256.Int
		junk.SetBytes(junkBytes)
		junk.Lsh(&junk, traits.UsedBits)

		var dirty uint256.Int
		dirty.Or(&clean, &junk)

		require.Equal(rt, traits.Decode(clean), traits.Decode(dirty))

		cleanPower := traits.PowerFromPacked(clean)
		dirtyPower := traits.PowerFromPacked(dirty)
		require.True(rt, cleanPower.Eq(&dirtyPower))
	})
}

// TestTraits_Validate covers the domain checks on raw tuples.
func TestTraits_Validate(t *testing.T) {
	valid := traits.Traits{PrimaryType: 7, SecondaryType: 0, Rarity: 4}
	assert.NoError(t, valid.Validate())

	badPrimary := valid
	badPrimary.PrimaryType = 8
	assert.ErrorIs(t, badPrimary.Validate(), traits.ErrElementRange)

	badSecondary := valid
	badSecondary.SecondaryType = 200
	assert.ErrorIs(t, badSecondary.Validate(), traits.ErrElementRange)

	badRarity := valid
	badRarity.Rarity = 5
	assert.ErrorIs(t, badRarity.Validate(), traits.ErrRarityRange)
}

// TestFormatWord_FixedWidth verifies the canonical rendering is always
// exactly 64 lowercase digits.
func TestFormatWord_FixedWidth(t *testing.T) {
	assert.Equal(t, "0x"+strings.Repeat("0", 64), traits.FormatWord(uint256.Int{}))

	one := traits.FormatWord(*uint256.NewInt(1))
	assert.Len(t, one, 66)
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"1", one)
}

// TestParseWord covers accepted shapes and rejection cases.
func TestParseWord(t *testing.T) {
	w, err := traits.ParseWord("0x1")
	require.NoError(t, err, "odd-length digits are padded")
	assert.Equal(t, uint64(1), w.Uint64())

	w, err = traits.ParseWord("0X0A")
	require.NoError(t, err, "upper-case prefix is accepted")
	assert.Equal(t, uint64(10), w.Uint64())

	_, err = traits.ParseWord("1234")
	assert.Error(t, err, "missing prefix")

	_, err = traits.ParseWord("0x")
	assert.Error(t, err, "no digits")

	_, err = traits.ParseWord("0x" + strings.Repeat("f", 65))
	assert.Error(t, err, "more than 256 bits")

	_, err = traits.ParseWord("0xzz")
	assert.Error(t, err, "non-hex digit")
}

// TestParseWord_RoundTrip verifies Parse inverts Format for arbitrary words.
func TestParseWord_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "word")
		var w uint256.Int
		w.SetBytes(raw)

		back, err := traits.ParseWord(traits.FormatWord(w))
		require.NoError(rt, err)
		require.True(rt, back.Eq(&w))
	})
}

// Package main provides a CLI tool for generating and inspecting monsters
// offline: no database, no server, just the generator and the trait codec.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

type monsterOutput struct {
	Name          string `json:"name"`
	PrimaryType   string `json:"primaryType"`
	SecondaryType string `json:"secondaryType"`
	HP            uint8  `json:"hp"`
	Attack        uint8  `json:"attack"`
	Defense       uint8  `json:"defense"`
	Speed         uint8  `json:"speed"`
	Rarity        string `json:"rarity"`
	Seed          string `json:"seed"`
	Packed        string `json:"packed"`
	Power         string `json:"power"`
}

type decodeOutput struct {
	PrimaryType   uint8  `json:"primaryType"`
	SecondaryType uint8  `json:"secondaryType"`
	HP            uint8  `json:"hp"`
	Attack        uint8  `json:"attack"`
	Defense       uint8  `json:"defense"`
	Speed         uint8  `json:"speed"`
	Rarity        uint8  `json:"rarity"`
	SeedLow32     uint32 `json:"seedLow32"`
	Valid         bool   `json:"valid"`
	Power         string `json:"power"`
}

func main() {
	seedHex := flag.String("seed", "", "0x-prefixed seed; output is fully deterministic")
	random := flag.Bool("random", false, "draw seeds from crypto/rand")
	count := flag.Int("count", 1, "number of monsters to generate with -random")
	decodeHex := flag.String("decode", "", "0x-prefixed packed trait word to decode instead of generating")
	asJSON := flag.Bool("json", false, "emit JSON, one object per line")
	flag.Parse()

	switch {
	case *decodeHex != "":
		decodeWord(*decodeHex, *asJSON)
	case *seedHex != "":
		sd, err := seed.Parse(*seedHex)
		if err != nil {
			log.Fatalf("parsing seed: %v", err)
		}
		emit(monster.Generate(sd), *asJSON)
	case *random:
		for i := 0; i < *count; i++ {
			sd, err := seed.New()
			if err != nil {
				log.Fatalf("drawing seed: %v", err)
			}
			emit(monster.Generate(sd), *asJSON)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func emit(m monster.Monster, asJSON bool) {
	packed, err := traits.Encode(m)
	if err != nil {
		log.Fatalf("packing traits: %v", err)
	}
	power := traits.Power(m)

	if asJSON {
		out := monsterOutput{
			Name:          m.Name,
			PrimaryType:   m.PrimaryType.String(),
			SecondaryType: m.SecondaryType.String(),
			HP:            m.HP,
			Attack:        m.Attack,
			Defense:       m.Defense,
			Speed:         m.Speed,
			Rarity:        m.Rarity.String(),
			Seed:          seed.Hex(m.Seed),
			Packed:        traits.FormatWord(packed),
			Power:         power.Dec(),
		}
		writeJSON(out)
		return
	}

	fmt.Fprintf(os.Stdout, "%s\n", m.Describe())
	fmt.Fprintf(os.Stdout, "  seed:   %s\n", seed.Hex(m.Seed))
	fmt.Fprintf(os.Stdout, "  packed: %s\n", traits.FormatWord(packed))
	fmt.Fprintf(os.Stdout, "  power:  %s\n", power.Dec())
}

func decodeWord(wordHex string, asJSON bool) {
	w, err := traits.ParseWord(wordHex)
	if err != nil {
		log.Fatalf("parsing packed word: %v", err)
	}
	tr := traits.Decode(w)
	power := traits.PowerFromPacked(w)
	valid := tr.Validate() == nil

	if asJSON {
		writeJSON(decodeOutput{
			PrimaryType:   tr.PrimaryType,
			SecondaryType: tr.SecondaryType,
			HP:            tr.HP,
			Attack:        tr.Attack,
			Defense:       tr.Defense,
			Speed:         tr.Speed,
			Rarity:        tr.Rarity,
			SeedLow32:     tr.SeedLow32,
			Valid:         valid,
			Power:         power.Dec(),
		})
		return
	}

	fmt.Fprintf(os.Stdout, "primary=%d secondary=%d hp=%d atk=%d def=%d spd=%d rarity=%d seed_low32=0x%08x\n",
		tr.PrimaryType, tr.SecondaryType, tr.HP, tr.Attack, tr.Defense, tr.Speed, tr.Rarity, tr.SeedLow32)
	fmt.Fprintf(os.Stdout, "  valid: %v\n", valid)
	fmt.Fprintf(os.Stdout, "  power: %s\n", power.Dec())
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}

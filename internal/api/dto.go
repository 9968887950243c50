// Package api exposes the ledger and market services over JSON-RPC 2.0.
//
// Seeds and packed trait words cross the wire as fixed-width 0x hex strings;
// prices, fees, and power scores as decimal strings. Both survive any JSON
// client's number handling, which 256-bit values do not.
package api

import (
	"time"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/cory-johannsen/menagerie/internal/game/market"
	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

// MonsterDTO mirrors a generated monster.
type MonsterDTO struct {
	Name          string `json:"name"`
	PrimaryType   string `json:"primaryType"`
	SecondaryType string `json:"secondaryType"`
	HP            uint8  `json:"hp"`
	Attack        uint8  `json:"attack"`
	Defense       uint8  `json:"defense"`
	Speed         uint8  `json:"speed"`
	Rarity        string `json:"rarity"`
	Seed          string `json:"seed"`
	Description   string `json:"description"`
}

// RecordDTO mirrors a minted monster and its ledger identity. Power is the
// precomputed power score of the packed word, as a decimal string.
type RecordDTO struct {
	TokenID   uint64     `json:"tokenId"`
	Owner     string     `json:"owner"`
	Monster   MonsterDTO `json:"monster"`
	Packed    string     `json:"packed"`
	Power     string     `json:"power"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TraitsDTO mirrors the fields of a packed trait word. Ordinals are reported
// raw so decoding stays total; range-check them with the valid flag on the
// enclosing reply.
type TraitsDTO struct {
	PrimaryType   uint8  `json:"primaryType"`
	SecondaryType uint8  `json:"secondaryType"`
	HP            uint8  `json:"hp"`
	Attack        uint8  `json:"attack"`
	Defense       uint8  `json:"defense"`
	Speed         uint8  `json:"speed"`
	Rarity        uint8  `json:"rarity"`
	SeedLow32     uint32 `json:"seedLow32"`
}

// ListingDTO mirrors a market listing.
type ListingDTO struct {
	ID        string    `json:"id"`
	TokenID   uint64    `json:"tokenId"`
	Seller    string    `json:"seller"`
	Price     string    `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReceiptDTO mirrors a settled sale.
type ReceiptDTO struct {
	ListingID string `json:"listingId"`
	TokenID   uint64 `json:"tokenId"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer"`
	Price     string `json:"price"`
	Fee       string `json:"fee"`
	Proceeds  string `json:"proceeds"`
}

// StatsDTO mirrors collection statistics. ByRarity is keyed by rarity name.
type StatsDTO struct {
	CollectionID string            `json:"collectionId"`
	Minted       uint64            `json:"minted"`
	MaxSupply    uint64            `json:"maxSupply"`
	ByRarity     map[string]uint64 `json:"byRarity"`
}

func toMonsterDTO(m monster.Monster) MonsterDTO {
	return MonsterDTO{
		Name:          m.Name,
		PrimaryType:   m.PrimaryType.String(),
		SecondaryType: m.SecondaryType.String(),
		HP:            m.HP,
		Attack:        m.Attack,
		Defense:       m.Defense,
		Speed:         m.Speed,
		Rarity:        m.Rarity.String(),
		Seed:          seed.Hex(m.Seed),
		Description:   m.Describe(),
	}
}

func toRecordDTO(rec *collection.Record) RecordDTO {
	power := traits.PowerFromPacked(rec.Packed)
	return RecordDTO{
		TokenID:   rec.TokenID,
		Owner:     rec.Owner,
		Monster:   toMonsterDTO(rec.Monster),
		Packed:    traits.FormatWord(rec.Packed),
		Power:     power.Dec(),
		CreatedAt: rec.CreatedAt,
	}
}

func toTraitsDTO(tr traits.Traits) TraitsDTO {
	return TraitsDTO{
		PrimaryType:   tr.PrimaryType,
		SecondaryType: tr.SecondaryType,
		HP:            tr.HP,
		Attack:        tr.Attack,
		Defense:       tr.Defense,
		Speed:         tr.Speed,
		Rarity:        tr.Rarity,
		SeedLow32:     tr.SeedLow32,
	}
}

func toListingDTO(l *market.Listing) ListingDTO {
	return ListingDTO{
		ID:        l.ID,
		TokenID:   l.TokenID,
		Seller:    l.Seller,
		Price:     l.Price.Dec(),
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toReceiptDTO(r *market.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ListingID: r.ListingID,
		TokenID:   r.TokenID,
		Seller:    r.Seller,
		Buyer:     r.Buyer,
		Price:     r.Price.Dec(),
		Fee:       r.Fee.Dec(),
		Proceeds:  r.Proceeds.Dec(),
	}
}

func toStatsDTO(s *collection.Stats) StatsDTO {
	byRarity := make(map[string]uint64, len(s.ByRarity))
	for r, n := range s.ByRarity {
		byRarity[r.String()] = n
	}
	return StatsDTO{
		CollectionID: s.CollectionID,
		Minted:       s.Minted,
		MaxSupply:    s.MaxSupply,
		ByRarity:     byRarity,
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

// monsterColumns is the select list shared by every monster query. Seeds and
// packed trait words are stored as fixed-width 0x hex so rows stay readable
// in psql and survive drivers that lack 256-bit integers.
const monsterColumns = `token_id, owner, name, primary_type, secondary_type,
	hp, attack, defense, speed, rarity, seed_hex, packed_hex, created_at`

// MonsterRepository persists minted monsters. It implements collection.Store;
// token ids are allocated by the database sequence.
type MonsterRepository struct {
	db *pgxpool.Pool
}

// NewMonsterRepository creates a MonsterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMonsterRepository(db *pgxpool.Pool) *MonsterRepository {
	return &MonsterRepository{db: db}
}

// Insert persists a minted monster and returns a copy with TokenID and
// CreatedAt assigned by the database.
//
// Precondition: rec.Owner must be non-empty; rec.Monster must be generator
// output with rec.Packed its encoded trait word.
func (r *MonsterRepository) Insert(ctx context.Context, rec *collection.Record) (*collection.Record, error) {
	out := *rec
	err := r.db.QueryRow(ctx, `
		INSERT INTO monsters
			(owner, name, primary_type, secondary_type,
			 hp, attack, defense, speed, rarity, seed_hex, packed_hex)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING token_id, created_at`,
		rec.Owner, rec.Monster.Name,
		int16(rec.Monster.PrimaryType), int16(rec.Monster.SecondaryType),
		int16(rec.Monster.HP), int16(rec.Monster.Attack),
		int16(rec.Monster.Defense), int16(rec.Monster.Speed),
		int16(rec.Monster.Rarity),
		seed.Hex(rec.Monster.Seed), traits.FormatWord(rec.Packed),
	).Scan(&out.TokenID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting monster: %w", err)
	}
	return &out, nil
}

// GetByTokenID retrieves one minted monster.
//
// Postcondition: Returns the record or an error satisfying
// errors.Is(err, collection.ErrNotFound).
func (r *MonsterRepository) GetByTokenID(ctx context.Context, tokenID uint64) (*collection.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx,
		`SELECT `+monsterColumns+` FROM monsters WHERE token_id = $1`,
		tokenID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("monster %d: %w", tokenID, collection.ErrNotFound)
		}
		return nil, fmt.Errorf("querying monster: %w", err)
	}
	return rec, nil
}

// ListByOwner returns all monsters owned by owner, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MonsterRepository) ListByOwner(ctx context.Context, owner string) ([]*collection.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+monsterColumns+` FROM monsters WHERE owner = $1 ORDER BY token_id ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("listing monsters: %w", err)
	}
	defer rows.Close()

	recs := make([]*collection.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning monster row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpdateOwner reassigns ownership of a token.
//
// Postcondition: Returns nil on success, or an error satisfying
// errors.Is(err, collection.ErrNotFound) if no row was updated.
func (r *MonsterRepository) UpdateOwner(ctx context.Context, tokenID uint64, owner string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE monsters SET owner = $2 WHERE token_id = $1`,
		tokenID, owner,
	)
	if err != nil {
		return fmt.Errorf("updating monster owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monster %d: %w", tokenID, collection.ErrNotFound)
	}
	return nil
}

// Count returns the number of minted monsters.
func (r *MonsterRepository) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM monsters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting monsters: %w", err)
	}
	return n, nil
}

// CountByRarity returns minted counts keyed by rarity ordinal. Rarities with
// no minted monsters are absent from the map.
func (r *MonsterRepository) CountByRarity(ctx context.Context) (map[uint8]uint64, error) {
	rows, err := r.db.Query(ctx, `SELECT rarity, COUNT(*) FROM monsters GROUP BY rarity`)
	if err != nil {
		return nil, fmt.Errorf("counting monsters by rarity: %w", err)
	}
	defer rows.Close()

	counts := make(map[uint8]uint64)
	for rows.Next() {
		var (
			rarity int16
			n      uint64
		)
		if err := rows.Scan(&rarity, &n); err != nil {
			return nil, fmt.Errorf("scanning rarity count: %w", err)
		}
		counts[uint8(rarity)] = n
	}
	return counts, rows.Err()
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord decodes one monsterColumns row, rehydrating the stored hex
// columns into 256-bit words.
func scanRecord(row rowScanner) (*collection.Record, error) {
	var (
		rec                                collection.Record
		primary, secondary                 int16
		hp, attack, defense, speed, rarity int16
		seedHex, packedHex                 string
	)
	if err := row.Scan(
		&rec.TokenID, &rec.Owner, &rec.Monster.Name,
		&primary, &secondary,
		&hp, &attack, &defense, &speed, &rarity,
		&seedHex, &packedHex, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	sd, err := seed.Parse(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decoding stored seed: %w", err)
	}
	packed, err := traits.ParseWord(packedHex)
	if err != nil {
		return nil, fmt.Errorf("decoding stored trait word: %w", err)
	}

	rec.Monster.PrimaryType = monster.ElementType(primary)
	rec.Monster.SecondaryType = monster.ElementType(secondary)
	rec.Monster.HP = uint8(hp)
	rec.Monster.Attack = uint8(attack)
	rec.Monster.Defense = uint8(defense)
	rec.Monster.Speed = uint8(speed)
	rec.Monster.Rarity = monster.Rarity(rarity)
	rec.Monster.Seed = sd
	rec.Packed = packed
	return &rec, nil
}

package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

var (
	// ErrNotFound reports a token id with no ledger record.
	ErrNotFound = errors.New("monster not found")
	// ErrSupplyExhausted reports a mint against a collection at its cap.
	ErrSupplyExhausted = errors.New("collection supply exhausted")
	// ErrNotOwner reports an operation by someone other than the owner.
	ErrNotOwner = errors.New("caller does not own monster")
)

// Record is a minted monster bound to its ledger identity.
type Record struct {
	TokenID   uint64
	Owner     string
	Monster   monster.Monster
	Packed    uint256.Int
	CreatedAt time.Time
}

// Store persists ledger records.
//
// Implementations must allocate token ids atomically and return errors
// satisfying errors.Is(err, ErrNotFound) when no record matches.
type Store interface {
	// Insert persists rec and returns it with TokenID and CreatedAt set.
	Insert(ctx context.Context, rec *Record) (*Record, error)
	// GetByTokenID fetches one record.
	GetByTokenID(ctx context.Context, tokenID uint64) (*Record, error)
	// ListByOwner fetches all records owned by owner, oldest first.
	ListByOwner(ctx context.Context, owner string) ([]*Record, error)
	// UpdateOwner reassigns ownership of a token.
	UpdateOwner(ctx context.Context, tokenID uint64, owner string) error
	// Count returns the number of minted monsters.
	Count(ctx context.Context) (uint64, error)
	// CountByRarity returns minted counts keyed by rarity ordinal.
	CountByRarity(ctx context.Context) (map[uint8]uint64, error)
}

// PackedCache caches packed trait words by token id.
//
// A miss is (zero, false, nil). Cache failures must never decide a ledger
// read; callers log and fall through to the Store.
type PackedCache interface {
	GetPacked(ctx context.Context, tokenID uint64) (uint256.Int, bool, error)
	SetPacked(ctx context.Context, tokenID uint64, w uint256.Int) error
}

// Stats summarizes the ledger for one collection.
type Stats struct {
	CollectionID string
	Minted       uint64
	MaxSupply    uint64 // zero when unlimited
	ByRarity     map[monster.Rarity]uint64
}

// Service is the ledger over a Store: it generates, persists, announces, and
// transfers monsters, and enforces the manifest supply cap.
type Service struct {
	manifest *Manifest
	store    Store
	cache    PackedCache
	seeds    seed.Source
	bus      *Bus
	logger   *zap.Logger

	// mintMu serializes the supply check against the insert so concurrent
	// mints cannot overshoot the cap.
	mintMu sync.Mutex
}

// NewService wires a ledger service. cache and bus may be nil; a nil cache
// disables read-through caching and a nil bus disables notifications.
//
// Precondition: manifest, store, seeds, and logger must not be nil.
func NewService(manifest *Manifest, store Store, seeds seed.Source, cache PackedCache, bus *Bus, logger *zap.Logger) *Service {
	return &Service{
		manifest: manifest,
		store:    store,
		cache:    cache,
		seeds:    seeds,
		bus:      bus,
		logger:   logger,
	}
}

// Manifest returns the collection manifest this ledger enforces.
func (s *Service) Manifest() *Manifest {
	return s.manifest
}

// Mint generates the monster for sd, assigns the next token id, persists it,
// and announces the creation.
//
// Precondition: owner must be non-empty.
// Postcondition: Returns the stored record, ErrSupplyExhausted once the
// manifest cap is reached, or a wrapped storage error. On success the same
// seed can be replayed through the generator to re-derive every trait.
func (s *Service) Mint(ctx context.Context, owner string, sd uint256.Int) (*Record, error) {
	if owner == "" {
		return nil, fmt.Errorf("minting monster: owner must not be empty")
	}

	s.mintMu.Lock()
	defer s.mintMu.Unlock()

	if !s.manifest.Unlimited() {
		minted, err := s.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting minted monsters: %w", err)
		}
		if minted >= s.manifest.MaxSupply {
			return nil, ErrSupplyExhausted
		}
	}

	mon := monster.Generate(sd)
	packed, err := traits.Encode(mon)
	if err != nil {
		// Generate output always packs; a failure here means the generator
		// and codec disagree on the domain.
		return nil, fmt.Errorf("packing generated traits: %w", err)
	}

	rec, err := s.store.Insert(ctx, &Record{
		Owner:   owner,
		Monster: mon,
		Packed:  packed,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting monster: %w", err)
	}

	s.cachePacked(ctx, rec.TokenID, rec.Packed)
	s.publish(Event{
		Kind:    EventMinted,
		TokenID: rec.TokenID,
		Owner:   rec.Owner,
		Name:    mon.Name,
		Rarity:  mon.Rarity,
	})

	s.logger.Info("monster minted",
		zap.Uint64("token_id", rec.TokenID),
		zap.String("owner", rec.Owner),
		zap.String("name", mon.Name),
		zap.String("rarity", mon.Rarity.String()),
		zap.String("collection", s.manifest.ID),
	)
	return rec, nil
}

// MintRandom mints with a seed drawn from the configured source.
func (s *Service) MintRandom(ctx context.Context, owner string) (*Record, error) {
	sd, err := s.seeds.Seed()
	if err != nil {
		return nil, fmt.Errorf("drawing seed: %w", err)
	}
	return s.Mint(ctx, owner, sd)
}

// Get fetches one ledger record.
func (s *Service) Get(ctx context.Context, tokenID uint64) (*Record, error) {
	rec, err := s.store.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("fetching monster %d: %w", tokenID, err)
	}
	return rec, nil
}

// ListByOwner fetches every record owned by owner, oldest first.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]*Record, error) {
	recs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing monsters for %q: %w", owner, err)
	}
	return recs, nil
}

// Packed returns the packed trait word for a token, consulting the cache
// before the store. Cache failures degrade to a store read.
func (s *Service) Packed(ctx context.Context, tokenID uint64) (uint256.Int, error) {
	if s.cache != nil {
		w, ok, err := s.cache.GetPacked(ctx, tokenID)
		if err != nil {
			s.logger.Warn("packed cache read failed",
				zap.Uint64("token_id", tokenID), zap.Error(err))
		} else if ok {
			return w, nil
		}
	}

	rec, err := s.store.GetByTokenID(ctx, tokenID)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("fetching packed word for %d: %w", tokenID, err)
	}
	s.cachePacked(ctx, tokenID, rec.Packed)
	return rec.Packed, nil
}

// Transfer reassigns ownership of a token.
//
// Precondition: to must be non-empty.
// Postcondition: Returns ErrNotFound for unknown tokens, ErrNotOwner when
// from does not currently own the token; on success an EventTransferred is
// published.
func (s *Service) Transfer(ctx context.Context, tokenID uint64, from, to string) error {
	if to == "" {
		return fmt.Errorf("transferring monster %d: recipient must not be empty", tokenID)
	}

	rec, err := s.store.GetByTokenID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("fetching monster %d: %w", tokenID, err)
	}
	if rec.Owner != from {
		return fmt.Errorf("transferring monster %d from %q: %w", tokenID, from, ErrNotOwner)
	}

	if err := s.store.UpdateOwner(ctx, tokenID, to); err != nil {
		return fmt.Errorf("updating owner of monster %d: %w", tokenID, err)
	}

	s.publish(Event{
		Kind:      EventTransferred,
		TokenID:   tokenID,
		Owner:     to,
		PrevOwner: from,
		Name:      rec.Monster.Name,
		Rarity:    rec.Monster.Rarity,
	})

	s.logger.Info("monster transferred",
		zap.Uint64("token_id", tokenID),
		zap.String("from", from),
		zap.String("to", to),
	)
	return nil
}

// Stats summarizes the ledger: minted count, cap, and the rarity histogram.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	minted, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting minted monsters: %w", err)
	}
	byOrdinal, err := s.store.CountByRarity(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting by rarity: %w", err)
	}

	byRarity := make(map[monster.Rarity]uint64, len(byOrdinal))
	for ord, n := range byOrdinal {
		byRarity[monster.Rarity(ord)] = n
	}
	return &Stats{
		CollectionID: s.manifest.ID,
		Minted:       minted,
		MaxSupply:    s.manifest.MaxSupply,
		ByRarity:     byRarity,
	}, nil
}

// cachePacked writes through to the cache when one is configured. Failures
// are logged and swallowed; the store remains authoritative.
func (s *Service) cachePacked(ctx context.Context, tokenID uint64, w uint256.Int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPacked(ctx, tokenID, w); err != nil {
		s.logger.Warn("packed cache write failed",
			zap.Uint64("token_id", tokenID), zap.Error(err))
	}
}

// publish stamps and fans out an event when a bus is configured.
func (s *Service) publish(e Event) {
	if s.bus == nil {
		return
	}
	e.ID = newEventID()
	e.At = time.Now().UTC()
	s.bus.Publish(e)
}

package market

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
)

// feeDenominator expresses fee rates in basis points.
const feeDenominator = 10_000

// Store persists listings and the accrued fee balance.
//
// Implementations must return errors satisfying errors.Is against the
// package sentinels: ErrListingNotFound for unknown ids, ErrAlreadyListed
// when a token already has an active listing, and ErrNotActive when a state
// flip loses its race.
type Store interface {
	// Insert persists a new active listing and returns it with timestamps set.
	Insert(ctx context.Context, l *Listing) (*Listing, error)
	// Get fetches one listing by id.
	Get(ctx context.Context, id string) (*Listing, error)
	// ListActive returns all active listings, oldest first.
	ListActive(ctx context.Context) ([]*Listing, error)
	// MarkCancelled flips an active listing to cancelled.
	MarkCancelled(ctx context.Context, id string) error
	// MarkSold atomically flips an active listing to sold and accrues fee.
	// Either both happen or neither does.
	MarkSold(ctx context.Context, id string, fee uint256.Int) error
	// ReopenSale reverts MarkSold: the listing returns to active and fee is
	// deducted again. Used as compensation when the ownership transfer fails
	// after the sale was claimed.
	ReopenSale(ctx context.Context, id string, fee uint256.Int) error
	// FeeBalance returns the accrued, undrawn fee total.
	FeeBalance(ctx context.Context) (uint256.Int, error)
	// WithdrawFees zeroes the accrued balance and returns the prior amount.
	WithdrawFees(ctx context.Context) (uint256.Int, error)
}

// Ledger is the slice of the collection service the market depends on.
type Ledger interface {
	Get(ctx context.Context, tokenID uint64) (*collection.Record, error)
	Transfer(ctx context.Context, tokenID uint64, from, to string) error
}

// Service runs the marketplace over a Store and the ownership Ledger.
type Service struct {
	store  Store
	ledger Ledger
	feeBps uint64
	logger *zap.Logger
}

// NewService wires a marketplace.
//
// Precondition: feeBps must not exceed 10_000 (100%); store, ledger, and
// logger must not be nil.
func NewService(store Store, ledger Ledger, feeBps uint64, logger *zap.Logger) (*Service, error) {
	if feeBps > feeDenominator {
		return nil, fmt.Errorf("fee rate %d bps exceeds %d", feeBps, feeDenominator)
	}
	return &Service{
		store:  store,
		ledger: ledger,
		feeBps: feeBps,
		logger: logger,
	}, nil
}

// FeeBps returns the configured protocol fee rate in basis points.
func (s *Service) FeeBps() uint64 {
	return s.feeBps
}

// Fee computes the protocol fee for price: price * feeBps / 10_000, rounded
// down. The fee never exceeds the price.
func (s *Service) Fee(price uint256.Int) uint256.Int {
	if s.feeBps == 0 {
		return uint256.Int{}
	}
	var fee uint256.Int
	// feeBps <= 10_000, so the quotient is bounded by price and the overflow
	// branch is unreachable.
	if _, overflow := fee.MulDivOverflow(&price, uint256.NewInt(s.feeBps), uint256.NewInt(feeDenominator)); overflow {
		panic("market: fee computation overflowed 256 bits")
	}
	return fee
}

// List puts a monster up for sale.
//
// Precondition: price must be positive; seller must currently own the token.
// Postcondition: Returns the stored active listing, or ErrInvalidPrice,
// collection.ErrNotFound, ErrNotSeller, ErrAlreadyListed.
func (s *Service) List(ctx context.Context, tokenID uint64, seller string, price uint256.Int) (*Listing, error) {
	if price.IsZero() {
		return nil, fmt.Errorf("listing monster %d: %w", tokenID, ErrInvalidPrice)
	}

	rec, err := s.ledger.Get(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("listing monster %d: %w", tokenID, err)
	}
	if rec.Owner != seller {
		return nil, fmt.Errorf("listing monster %d for %q: %w", tokenID, seller, ErrNotSeller)
	}

	listing, err := s.store.Insert(ctx, &Listing{
		ID:      uuid.NewString(),
		TokenID: tokenID,
		Seller:  seller,
		Price:   price,
		Status:  StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting listing for monster %d: %w", tokenID, err)
	}

	s.logger.Info("monster listed",
		zap.String("listing_id", listing.ID),
		zap.Uint64("token_id", tokenID),
		zap.String("seller", seller),
		zap.String("price", price.Dec()),
	)
	return listing, nil
}

// Cancel takes an active listing down.
//
// Postcondition: Returns ErrListingNotFound, ErrNotSeller, or ErrNotActive
// when the listing is missing, foreign, or already settled.
func (s *Service) Cancel(ctx context.Context, listingID, seller string) error {
	listing, err := s.store.Get(ctx, listingID)
	if err != nil {
		return fmt.Errorf("cancelling listing %s: %w", listingID, err)
	}
	if listing.Seller != seller {
		return fmt.Errorf("cancelling listing %s for %q: %w", listingID, seller, ErrNotSeller)
	}

	if err := s.store.MarkCancelled(ctx, listingID); err != nil {
		return fmt.Errorf("cancelling listing %s: %w", listingID, err)
	}

	s.logger.Info("listing cancelled",
		zap.String("listing_id", listingID),
		zap.Uint64("token_id", listing.TokenID),
	)
	return nil
}

// Purchase settles an active listing: the listing is claimed, the protocol
// fee accrues, and ownership moves to the buyer.
//
// The claim and the fee accrual are atomic in the Store. If the ownership
// transfer then fails, the claim is compensated and the listing returns to
// active; a failed compensation leaves the listing sold without an ownership
// change and is logged at error level for reconciliation.
//
// Postcondition: on success the buyer owns the token, the listing is sold,
// and Receipt.Price = Receipt.Fee + Receipt.Proceeds.
func (s *Service) Purchase(ctx context.Context, listingID, buyer string) (*Receipt, error) {
	listing, err := s.store.Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("purchasing listing %s: %w", listingID, err)
	}
	if listing.Status != StatusActive {
		return nil, fmt.Errorf("purchasing listing %s: %w", listingID, ErrNotActive)
	}
	if buyer == listing.Seller {
		return nil, fmt.Errorf("purchasing listing %s: %w", listingID, ErrSelfPurchase)
	}

	fee := s.Fee(listing.Price)

	if err := s.store.MarkSold(ctx, listingID, fee); err != nil {
		return nil, fmt.Errorf("claiming listing %s: %w", listingID, err)
	}

	if err := s.ledger.Transfer(ctx, listing.TokenID, listing.Seller, buyer); err != nil {
		if reopenErr := s.store.ReopenSale(ctx, listingID, fee); reopenErr != nil {
			s.logger.Error("reverting claimed sale failed",
				zap.String("listing_id", listingID),
				zap.Uint64("token_id", listing.TokenID),
				zap.Error(reopenErr),
			)
		}
		return nil, fmt.Errorf("transferring monster %d to buyer: %w", listing.TokenID, err)
	}

	var proceeds uint256.Int
	proceeds.Sub(&listing.Price, &fee)

	s.logger.Info("monster sold",
		zap.String("listing_id", listingID),
		zap.Uint64("token_id", listing.TokenID),
		zap.String("seller", listing.Seller),
		zap.String("buyer", buyer),
		zap.String("price", listing.Price.Dec()),
		zap.String("fee", fee.Dec()),
	)
	return &Receipt{
		ListingID: listingID,
		TokenID:   listing.TokenID,
		Seller:    listing.Seller,
		Buyer:     buyer,
		Price:     listing.Price,
		Fee:       fee,
		Proceeds:  proceeds,
	}, nil
}

// ActiveListings returns every listing currently for sale, oldest first.
func (s *Service) ActiveListings(ctx context.Context) ([]*Listing, error) {
	listings, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active sales: %w", err)
	}
	return listings, nil
}

// FeeBalance returns the accrued, undrawn protocol fee total.
func (s *Service) FeeBalance(ctx context.Context) (uint256.Int, error) {
	balance, err := s.store.FeeBalance(ctx)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("reading fee balance: %w", err)
	}
	return balance, nil
}

// WithdrawFees drains the accrued fee balance, recording recipient in the
// audit log. The ledger only tracks amounts; actual settlement happens
// outside this system.
//
// Postcondition: Returns the amount drained, or ErrNoFees when the balance
// was already zero.
func (s *Service) WithdrawFees(ctx context.Context, recipient string) (uint256.Int, error) {
	amount, err := s.store.WithdrawFees(ctx)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("withdrawing fees: %w", err)
	}
	if amount.IsZero() {
		return uint256.Int{}, ErrNoFees
	}

	s.logger.Info("fees withdrawn",
		zap.String("recipient", recipient),
		zap.String("amount", amount.Dec()),
	)
	return amount, nil
}

// Package market implements the monster marketplace: sale listings,
// purchases with protocol fee accrual, and fee withdrawal.
package market

import (
	"errors"
	"time"

	"github.com/holiman/uint256"
)

// Status is a listing lifecycle state. A listing moves from active to
// exactly one of sold or cancelled, never back.
type Status string

const (
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a defined lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusCancelled:
		return true
	}
	return false
}

var (
	// ErrListingNotFound reports an unknown listing id.
	ErrListingNotFound = errors.New("listing not found")
	// ErrAlreadyListed reports a second active listing for the same token.
	ErrAlreadyListed = errors.New("token already listed")
	// ErrNotSeller reports a listing operation by someone other than its seller.
	ErrNotSeller = errors.New("caller is not the seller")
	// ErrNotActive reports an operation on a sold or cancelled listing.
	ErrNotActive = errors.New("listing is not active")
	// ErrSelfPurchase reports a seller buying their own listing.
	ErrSelfPurchase = errors.New("seller cannot buy own listing")
	// ErrInvalidPrice reports a zero asking price.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrNoFees reports a withdrawal with nothing accrued.
	ErrNoFees = errors.New("no fees accrued")
)

// Listing is one sale offer for a monster.
type Listing struct {
	ID        string
	TokenID   uint64
	Seller    string
	Price     uint256.Int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Receipt summarizes a completed purchase. Proceeds is what the seller is
// owed after the protocol fee: Price = Fee + Proceeds exactly.
type Receipt struct {
	ListingID string
	TokenID   uint64
	Seller    string
	Buyer     string
	Price     uint256.Int
	Fee       uint256.Int
	Proceeds  uint256.Int
}

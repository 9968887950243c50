package api

import (
	"net/http"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/cory-johannsen/menagerie/internal/game/market"
)

// MarketService exposes listing and settlement operations. Methods are
// addressed as "market.<Method>".
type MarketService struct {
	market *market.Service
	logger *zap.Logger
}

// NewMarketService creates the market RPC facade.
//
// Precondition: market and logger must be non-nil.
func NewMarketService(market *market.Service, logger *zap.Logger) *MarketService {
	return &MarketService{market: market, logger: logger}
}

// ListArgs put a monster up for sale at a decimal price.
type ListArgs struct {
	TokenID uint64 `json:"tokenId"`
	Seller  string `json:"seller"`
	Price   string `json:"price"`
}

// ListReply carries the created listing.
type ListReply struct {
	Listing ListingDTO `json:"listing"`
}

// List creates an active listing for a monster the seller owns.
func (s *MarketService) List(r *http.Request, args *ListArgs, reply *ListReply) error {
	price, err := uint256.FromDecimal(args.Price)
	if err != nil {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: "price: " + err.Error()}
	}

	listing, err := s.market.List(r.Context(), args.TokenID, args.Seller, *price)
	if err != nil {
		return err
	}
	reply.Listing = toListingDTO(listing)
	return nil
}

// CancelArgs take a listing down.
type CancelArgs struct {
	ListingID string `json:"listingId"`
	Seller    string `json:"seller"`
}

// Cancel withdraws an active listing.
func (s *MarketService) Cancel(r *http.Request, args *CancelArgs, reply *EmptyReply) error {
	return s.market.Cancel(r.Context(), args.ListingID, args.Seller)
}

// PurchaseArgs settle a listing for a buyer.
type PurchaseArgs struct {
	ListingID string `json:"listingId"`
	Buyer     string `json:"buyer"`
}

// PurchaseReply carries the settlement receipt.
type PurchaseReply struct {
	Receipt ReceiptDTO `json:"receipt"`
}

// Purchase settles an active listing and moves ownership to the buyer.
func (s *MarketService) Purchase(r *http.Request, args *PurchaseArgs, reply *PurchaseReply) error {
	receipt, err := s.market.Purchase(r.Context(), args.ListingID, args.Buyer)
	if err != nil {
		return err
	}
	reply.Receipt = toReceiptDTO(receipt)
	return nil
}

// ListingsArgs select the active listings.
type ListingsArgs struct{}

// ListingsReply carries every active listing, oldest first.
type ListingsReply struct {
	Listings []ListingDTO `json:"listings"`
}

// Listings returns everything currently for sale.
func (s *MarketService) Listings(r *http.Request, args *ListingsArgs, reply *ListingsReply) error {
	listings, err := s.market.ActiveListings(r.Context())
	if err != nil {
		return err
	}
	reply.Listings = make([]ListingDTO, len(listings))
	for i, l := range listings {
		reply.Listings[i] = toListingDTO(l)
	}
	return nil
}

// FeeBalanceArgs select the accrued fee balance.
type FeeBalanceArgs struct{}

// FeeBalanceReply carries the balance as a decimal string.
type FeeBalanceReply struct {
	Balance string `json:"balance"`
}

// FeeBalance reports the accrued, undrawn protocol fees.
func (s *MarketService) FeeBalance(r *http.Request, args *FeeBalanceArgs, reply *FeeBalanceReply) error {
	balance, err := s.market.FeeBalance(r.Context())
	if err != nil {
		return err
	}
	reply.Balance = balance.Dec()
	return nil
}

// WithdrawFeesArgs name the fee recipient for the audit log.
type WithdrawFeesArgs struct {
	Recipient string `json:"recipient"`
}

// WithdrawFeesReply carries the amount swept.
type WithdrawFeesReply struct {
	Amount string `json:"amount"`
}

// WithdrawFees drains the accrued fee balance.
func (s *MarketService) WithdrawFees(r *http.Request, args *WithdrawFeesArgs, reply *WithdrawFeesReply) error {
	amount, err := s.market.WithdrawFees(r.Context(), args.Recipient)
	if err != nil {
		return err
	}
	reply.Amount = amount.Dec()
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/menagerie/internal/game/market"
)

// MarketRepository persists listings and the accrued fee balance. It
// implements market.Store.
//
// Prices and fees exceed every native SQL integer, so they live in
// NUMERIC(78,0) columns and cross the wire as decimal strings. A partial
// unique index on active listings enforces one sale per token; the claim in
// MarkSold and its fee accrual share one transaction.
type MarketRepository struct {
	db *pgxpool.Pool
}

// NewMarketRepository creates a MarketRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMarketRepository(db *pgxpool.Pool) *MarketRepository {
	return &MarketRepository{db: db}
}

// Insert persists a new active listing.
//
// Precondition: l.ID must be a UUID; l.Status must be StatusActive.
// Postcondition: Returns a copy with CreatedAt and UpdatedAt set, or an error
// satisfying errors.Is(err, market.ErrAlreadyListed) if the token already has
// an active listing.
func (r *MarketRepository) Insert(ctx context.Context, l *market.Listing) (*market.Listing, error) {
	out := *l
	err := r.db.QueryRow(ctx, `
		INSERT INTO listings (id, token_id, seller, price, status)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING created_at, updated_at`,
		l.ID, l.TokenID, l.Seller, l.Price.Dec(), string(l.Status),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("token %d: %w", l.TokenID, market.ErrAlreadyListed)
		}
		return nil, fmt.Errorf("inserting listing: %w", err)
	}
	return &out, nil
}

// Get retrieves one listing by id.
//
// Postcondition: Returns the listing or an error satisfying
// errors.Is(err, market.ErrListingNotFound).
func (r *MarketRepository) Get(ctx context.Context, id string) (*market.Listing, error) {
	listing, err := scanListing(r.db.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", id, market.ErrListingNotFound)
		}
		return nil, fmt.Errorf("querying listing: %w", err)
	}
	return listing, nil
}

// ListActive returns every active listing, oldest first.
func (r *MarketRepository) ListActive(ctx context.Context) ([]*market.Listing, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE status = 'active' ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active sales: %w", err)
	}
	defer rows.Close()

	listings := make([]*market.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// MarkCancelled takes an active listing down.
//
// Postcondition: Returns nil on success, market.ErrListingNotFound for an
// unknown id, or market.ErrNotActive if the listing is already settled.
func (r *MarketRepository) MarkCancelled(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE listings SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status = 'active'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("cancelling listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.flipConflict(ctx, r.db, id)
	}
	return nil
}

// MarkSold claims an active listing and accrues its protocol fee in one
// transaction, so a crash between the two cannot lose or double-count fees.
//
// Postcondition: On success the listing is sold and the fee balance has grown
// by fee. Returns market.ErrListingNotFound or market.ErrNotActive without
// touching the balance otherwise.
func (r *MarketRepository) MarkSold(ctx context.Context, id string, fee uint256.Int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning sale transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE listings SET status = 'sold', updated_at = NOW()
		 WHERE id = $1 AND status = 'active'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("claiming listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.flipConflict(ctx, tx, id)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE fee_ledger SET balance = balance + $1::numeric WHERE id = 1`,
		fee.Dec(),
	); err != nil {
		return fmt.Errorf("accruing fee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sale: %w", err)
	}
	return nil
}

// ReopenSale reverts a claimed sale: the listing returns to active and the
// accrued fee is deducted, again in one transaction.
//
// Postcondition: Returns market.ErrListingNotFound for an unknown id, or
// market.ErrNotActive if the listing is not currently sold.
func (r *MarketRepository) ReopenSale(ctx context.Context, id string, fee uint256.Int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning revert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE listings SET status = 'active', updated_at = NOW()
		 WHERE id = $1 AND status = 'sold'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("reopening listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.flipConflict(ctx, tx, id)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE fee_ledger SET balance = balance - $1::numeric WHERE id = 1`,
		fee.Dec(),
	); err != nil {
		return fmt.Errorf("deducting fee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing revert: %w", err)
	}
	return nil
}

// FeeBalance returns the accrued, undrawn protocol fee total.
func (r *MarketRepository) FeeBalance(ctx context.Context) (uint256.Int, error) {
	var balStr string
	err := r.db.QueryRow(ctx,
		`SELECT balance::text FROM fee_ledger WHERE id = 1`,
	).Scan(&balStr)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("reading fee balance: %w", err)
	}
	return parseBalance(balStr)
}

// WithdrawFees atomically reads and zeroes the fee balance.
//
// Postcondition: Returns the amount swept; zero when nothing had accrued.
func (r *MarketRepository) WithdrawFees(ctx context.Context) (uint256.Int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("beginning withdrawal: %w", err)
	}
	defer tx.Rollback(ctx)

	var balStr string
	err = tx.QueryRow(ctx,
		`SELECT balance::text FROM fee_ledger WHERE id = 1 FOR UPDATE`,
	).Scan(&balStr)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("reading fee balance: %w", err)
	}
	amount, err := parseBalance(balStr)
	if err != nil {
		return uint256.Int{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE fee_ledger SET balance = 0 WHERE id = 1`); err != nil {
		return uint256.Int{}, fmt.Errorf("zeroing fee balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uint256.Int{}, fmt.Errorf("committing withdrawal: %w", err)
	}
	return amount, nil
}

// listingColumns is the select list shared by every listing query.
const listingColumns = `id, token_id, seller, price::text, status, created_at, updated_at`

// scanListing decodes one listingColumns row.
func scanListing(row rowScanner) (*market.Listing, error) {
	var (
		l        market.Listing
		priceStr string
		status   string
	)
	if err := row.Scan(
		&l.ID, &l.TokenID, &l.Seller, &priceStr, &status, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	price, err := uint256.FromDecimal(priceStr)
	if err != nil {
		return nil, fmt.Errorf("decoding stored price %q: %w", priceStr, err)
	}
	l.Price = *price
	l.Status = market.Status(status)
	return &l, nil
}

// parseBalance decodes a NUMERIC(78,0) fee balance rendered as text.
func parseBalance(s string) (uint256.Int, error) {
	balance, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("decoding stored fee balance %q: %w", s, err)
	}
	return *balance, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

// queryRower lets flipConflict run its lookup on either the pool or an open
// transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// flipConflict reports why a status flip matched no rows: the listing is
// either missing entirely or in the wrong state.
func (r *MarketRepository) flipConflict(ctx context.Context, q queryRower, id string) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking listing state: %w", err)
	}
	if !exists {
		return fmt.Errorf("listing %s: %w", id, market.ErrListingNotFound)
	}
	return fmt.Errorf("listing %s: %w", id, market.ErrNotActive)
}

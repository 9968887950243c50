package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/menagerie/internal/game/market"
	"github.com/cory-johannsen/menagerie/internal/storage/postgres"
	"github.com/cory-johannsen/menagerie/internal/testutil"
)

func setupMarketRepos(t *testing.T) (*postgres.MarketRepository, *postgres.MonsterRepository) {
	t.Helper()
	pool := testutil.NewPool(t)
	return postgres.NewMarketRepository(pool), postgres.NewMonsterRepository(pool)
}

// mintToken inserts a monster row so listings have a token to reference.
func mintToken(t *testing.T, monsters *postgres.MonsterRepository, owner string) uint64 {
	t.Helper()
	rec, err := monsters.Insert(context.Background(), makeRecord(t, owner, 42))
	require.NoError(t, err)
	return rec.TokenID
}

func newListing(tokenID uint64, seller string, price uint64) *market.Listing {
	return &market.Listing{
		ID:      uuid.NewString(),
		TokenID: tokenID,
		Seller:  seller,
		Price:   *uint256.NewInt(price),
		Status:  market.StatusActive,
	}
}

func TestMarketRepository_InsertAndGet(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	fetched, err := listings.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, tokenID, fetched.TokenID)
	assert.Equal(t, "alice", fetched.Seller)
	assert.True(t, fetched.Price.Eq(uint256.NewInt(5000)), "price survives NUMERIC round trip")
	assert.Equal(t, market.StatusActive, fetched.Status)
}

func TestMarketRepository_Insert_DuplicateActive(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	_, err := listings.Insert(ctx, newListing(tokenID, "alice", 100))
	require.NoError(t, err)

	_, err = listings.Insert(ctx, newListing(tokenID, "alice", 200))
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrAlreadyListed)
}

func TestMarketRepository_Insert_RelistAfterCancel(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	first, err := listings.Insert(ctx, newListing(tokenID, "alice", 100))
	require.NoError(t, err)
	require.NoError(t, listings.MarkCancelled(ctx, first.ID))

	_, err = listings.Insert(ctx, newListing(tokenID, "alice", 200))
	assert.NoError(t, err, "only active listings block relisting")
}

func TestMarketRepository_Get_NotFound(t *testing.T) {
	listings, _ := setupMarketRepos(t)
	_, err := listings.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrListingNotFound)
}

func TestMarketRepository_ListActive(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenA := mintToken(t, monsters, "alice")
	tokenB := mintToken(t, monsters, "alice")
	tokenC := mintToken(t, monsters, "alice")

	first, err := listings.Insert(ctx, newListing(tokenA, "alice", 100))
	require.NoError(t, err)
	second, err := listings.Insert(ctx, newListing(tokenB, "alice", 200))
	require.NoError(t, err)
	cancelled, err := listings.Insert(ctx, newListing(tokenC, "alice", 300))
	require.NoError(t, err)
	require.NoError(t, listings.MarkCancelled(ctx, cancelled.ID))

	active, err := listings.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID, "oldest first")
	assert.Equal(t, second.ID, active[1].ID)
}

func TestMarketRepository_MarkCancelled_NotFound(t *testing.T) {
	listings, _ := setupMarketRepos(t)
	err := listings.MarkCancelled(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrListingNotFound)
}

func TestMarketRepository_MarkCancelled_AlreadySettled(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 100))
	require.NoError(t, err)
	require.NoError(t, listings.MarkCancelled(ctx, created.ID))

	err = listings.MarkCancelled(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrNotActive)
}

func TestMarketRepository_MarkSold_AccruesFee(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)

	err = listings.MarkSold(ctx, created.ID, *uint256.NewInt(125))
	require.NoError(t, err)

	fetched, err := listings.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, market.StatusSold, fetched.Status)

	balance, err := listings.FeeBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Eq(uint256.NewInt(125)), "got %s", balance.Dec())
}

func TestMarketRepository_MarkSold_OnlyOnce(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)
	require.NoError(t, listings.MarkSold(ctx, created.ID, *uint256.NewInt(125)))

	err = listings.MarkSold(ctx, created.ID, *uint256.NewInt(125))
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrNotActive)

	// The failed claim must not touch the balance.
	balance, err := listings.FeeBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Eq(uint256.NewInt(125)), "got %s", balance.Dec())
}

func TestMarketRepository_ReopenSale(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)
	require.NoError(t, listings.MarkSold(ctx, created.ID, *uint256.NewInt(125)))

	err = listings.ReopenSale(ctx, created.ID, *uint256.NewInt(125))
	require.NoError(t, err)

	fetched, err := listings.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, market.StatusActive, fetched.Status)

	balance, err := listings.FeeBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "fee deducted on revert, got %s", balance.Dec())
}

func TestMarketRepository_ReopenSale_NotSold(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)

	err = listings.ReopenSale(ctx, created.ID, *uint256.NewInt(125))
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrNotActive)
}

func TestMarketRepository_WithdrawFees(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	tokenID := mintToken(t, monsters, "alice")
	created, err := listings.Insert(ctx, newListing(tokenID, "alice", 5000))
	require.NoError(t, err)
	require.NoError(t, listings.MarkSold(ctx, created.ID, *uint256.NewInt(500)))

	amount, err := listings.WithdrawFees(ctx)
	require.NoError(t, err)
	assert.True(t, amount.Eq(uint256.NewInt(500)), "got %s", amount.Dec())

	balance, err := listings.FeeBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	// A second sweep finds nothing.
	amount, err = listings.WithdrawFees(ctx)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

// TestMarketRepository_Property_PriceRoundTrips verifies that any 256-bit
// price survives the NUMERIC(78,0) column intact.
func TestMarketRepository_Property_PriceRoundTrips(t *testing.T) {
	listings, monsters := setupMarketRepos(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		var price uint256.Int
		price[0] = rapid.Uint64().Draw(rt, "limb0")
		price[1] = rapid.Uint64().Draw(rt, "limb1")
		price[2] = rapid.Uint64().Draw(rt, "limb2")
		price[3] = rapid.Uint64().Draw(rt, "limb3")
		if price.IsZero() {
			price[0] = 1
		}

		tokenID := mintToken(t, monsters, "prop")
		created, err := listings.Insert(ctx, &market.Listing{
			ID:      uuid.NewString(),
			TokenID: tokenID,
			Seller:  "prop",
			Price:   price,
			Status:  market.StatusActive,
		})
		require.NoError(rt, err)

		fetched, err := listings.Get(ctx, created.ID)
		require.NoError(rt, err)
		require.True(rt, fetched.Price.Eq(&price),
			"stored %s, fetched %s", price.Dec(), fetched.Price.Dec())
	})
}

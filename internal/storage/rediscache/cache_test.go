package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
	"github.com/cory-johannsen/menagerie/internal/storage/rediscache"
)

const cacheTTL = 10 * time.Minute

// packedWord returns a realistic trait word and its wire form.
func packedWord(t *testing.T) (uint256.Int, string) {
	t.Helper()
	mon := monster.Generate(*uint256.NewInt(0x0123456789ABCDEF))
	w, err := traits.Encode(mon)
	require.NoError(t, err)
	return w, traits.FormatWord(w)
}

func TestCache_GetPacked_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	w, hex := packedWord(t)
	mock.ExpectGet("packed:7").SetVal(hex)

	got, ok, err := cache.GetPacked(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Eq(&w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetPacked_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	mock.ExpectGet("packed:7").RedisNil()

	got, ok, err := cache.GetPacked(context.Background(), 7)
	require.NoError(t, err, "a miss is not an error")
	assert.False(t, ok)
	assert.True(t, got.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetPacked_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	mock.ExpectGet("packed:7").SetErr(errors.New("connection refused"))

	_, ok, err := cache.GetPacked(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCache_GetPacked_CorruptValue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	mock.ExpectGet("packed:7").SetVal("not-a-trait-word")

	_, ok, err := cache.GetPacked(context.Background(), 7)
	require.Error(t, err, "corrupt entries surface as errors, not hits")
	assert.False(t, ok)
}

func TestCache_SetPacked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	w, hex := packedWord(t)
	mock.ExpectSet("packed:42", hex, cacheTTL).SetVal("OK")

	err := cache.SetPacked(context.Background(), 42, w)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_SetPacked_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	w, hex := packedWord(t)
	mock.ExpectSet("packed:42", hex, cacheTTL).SetErr(errors.New("connection refused"))

	err := cache.SetPacked(context.Background(), 42, w)
	require.Error(t, err)
}

func TestCache_RoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	w, hex := packedWord(t)
	mock.ExpectSet("packed:9", hex, cacheTTL).SetVal("OK")
	mock.ExpectGet("packed:9").SetVal(hex)

	require.NoError(t, cache.SetPacked(context.Background(), 9, w))

	got, ok, err := cache.GetPacked(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Eq(&w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Health(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := rediscache.NewCache(client, cacheTTL)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, cache.Health(context.Background(), time.Second))
}

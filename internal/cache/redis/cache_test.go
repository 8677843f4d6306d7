package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/productscraper/internal/crawler"
)

func TestCacheGetHit(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	key := crawler.FetchKey("https://shop.test/shop/page/1/")
	mock.ExpectGet(key).SetVal("<html></html>")

	got, ok, err := New(db).Get(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("<html></html>"), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetMiss(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	mock.ExpectGet("absent").RedisNil()

	got, ok, err := New(db).Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetError(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	mock.ExpectGet("k").SetErr(errors.New("connection refused"))

	_, ok, err := New(db).Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCacheSetUsesExpiry(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	mock.ExpectSet("k", []byte("body"), time.Hour).SetVal("OK")

	require.NoError(t, New(db).Set(context.Background(), "k", []byte("body"), time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSetError(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	mock.ExpectSet("k", []byte("body"), time.Hour).SetErr(errors.New("readonly"))

	err := New(db).Set(context.Background(), "k", []byte("body"), time.Hour)
	require.ErrorContains(t, err, "readonly")
}

func TestConnectFailsFast(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, _, err := Connect(ctx, Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

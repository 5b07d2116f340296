package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront/internal/pkg/logger"
)

func newTestLedger(t *testing.T) (*CheckoutLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	conn := NewConnectionFromClient(client)
	t.Cleanup(func() { conn.Close() })
	return NewCheckoutLedger(conn, logger.Discard()), mr
}

func TestCheckoutLedger_ReserveOnce(t *testing.T) {
	ledger, mr := newTestLedger(t)
	ctx := context.Background()

	ok, err := ledger.Reserve(ctx, "accessorize-me-1", "1450", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Reserve(ctx, "accessorize-me-1", "99", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := mr.Get("checkout:accessorize-me-1")
	require.NoError(t, err)
	assert.Equal(t, "1450", stored)
	assert.Equal(t, time.Hour, mr.TTL("checkout:accessorize-me-1"))
}

func TestCheckoutLedger_Lookup(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, found, err := ledger.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = ledger.Reserve(ctx, "tx-2", "720", time.Minute)
	require.NoError(t, err)

	total, found, err := ledger.Lookup(ctx, "tx-2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "720", total)
}

func TestCheckoutLedger_EntriesExpire(t *testing.T) {
	ledger, mr := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "tx-3", "1", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	ok, err := ledger.Reserve(ctx, "tx-3", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckoutLedger_ServerDown(t *testing.T) {
	ledger, mr := newTestLedger(t)
	mr.Close()

	_, err := ledger.Reserve(context.Background(), "tx-4", "1", time.Minute)
	assert.Error(t, err)

	_, _, err = ledger.Lookup(context.Background(), "tx-4")
	assert.Error(t, err)
}

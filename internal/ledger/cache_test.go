package ledger

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BalanceCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBalanceCache(client, 0)
}

func TestBalanceServedFromCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, newTestCache(t))

	res, _ := svc.CreateReseller(ctx, "Juan")
	_, err := svc.AppendMovement(ctx, AppendMovementInput{
		ResellerID: res.ID, Kind: KindPayment, Amount: 700,
	})
	require.NoError(t, err)

	first, err := svc.Balance(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, 700.0, first)

	// Mutate the store behind the cache's back; the stale value sticks
	// until a ledger write invalidates it.
	repo.movements[1].Amount = 999
	cached, err := svc.Balance(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, 700.0, cached)
}

func TestMovementWriteInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, newTestCache(t))

	res, _ := svc.CreateReseller(ctx, "Juan")
	_, _ = svc.AppendMovement(ctx, AppendMovementInput{
		ResellerID: res.ID, Kind: KindPayment, Amount: 700,
	})
	_, err := svc.Balance(ctx, res.ID)
	require.NoError(t, err)

	_, err = svc.AppendMovement(ctx, AppendMovementInput{
		ResellerID: res.ID, Kind: KindDeliveryDebit, Amount: 200,
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, 500.0, balance)
}

func TestNilCacheDegradesToStore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo(), nil)

	res, _ := svc.CreateReseller(ctx, "Juan")
	_, _ = svc.AppendMovement(ctx, AppendMovementInput{
		ResellerID: res.ID, Kind: KindPayment, Amount: 50,
	})
	balance, err := svc.Balance(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, 50.0, balance)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"route-scheduling-service/internal/adapters/repositories/memory"
	"route-scheduling-service/internal/domain"
)

func newTestLedger(t *testing.T, entries ...*domain.StockEntry) (*StockLedger, *memory.StockRepository) {
	t.Helper()
	stocks := memory.NewStockRepository()
	stocks.Seed(entries...)
	return NewStockLedger(stocks, nil, zap.NewNop()), stocks
}

func TestReserveHoldsReduceAvailability(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	res, err := ledger.Reserve(ctx, "rice", "A", 15, "route-1", "dp-1")
	require.NoError(t, err)
	require.Equal(t, domain.ReservationHeld, res.State)

	available, err := ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 5, available)

	_, err = ledger.Reserve(ctx, "rice", "A", 8, "route-2", "dp-2")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 8, stockErr.Requested)
	require.Equal(t, 5, stockErr.Available)

	// The failed attempt leaves the first hold untouched.
	available, err = ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 5, available)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	_, err := ledger.Reserve(ctx, "rice", "A", 0, "route-1", "dp-1")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = ledger.Reserve(ctx, "rice", "A", -3, "route-1", "dp-1")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCommitDecrementsOnHand(t *testing.T) {
	ctx := context.Background()
	ledger, stocks := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	res, err := ledger.Reserve(ctx, "rice", "A", 15, "route-1", "dp-1")
	require.NoError(t, err)

	require.NoError(t, ledger.Commit(ctx, res.ID))

	entry, err := stocks.Get(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 5, entry.OnHand)

	available, err := ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 5, available)

	// Committing again is a no-op, not a second decrement.
	require.NoError(t, ledger.Commit(ctx, res.ID))
	entry, err = stocks.Get(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 5, entry.OnHand)
}

func TestCommitAfterReleaseFails(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	res, err := ledger.Reserve(ctx, "rice", "A", 5, "route-1", "dp-1")
	require.NoError(t, err)

	require.NoError(t, ledger.Release(ctx, res.ID))
	require.ErrorIs(t, ledger.Commit(ctx, res.ID), domain.ErrInvalidState)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	ctx := context.Background()
	ledger, stocks := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	res, err := ledger.Reserve(ctx, "rice", "A", 15, "route-1", "dp-1")
	require.NoError(t, err)

	require.NoError(t, ledger.Release(ctx, res.ID))

	available, err := ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 20, available)

	entry, err := stocks.Get(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 20, entry.OnHand)

	// Releasing a settled hold stays a no-op.
	require.NoError(t, ledger.Release(ctx, res.ID))
	available, err = ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 20, available)
}

func TestCreditCreatesMissingEntry(t *testing.T) {
	ctx := context.Background()
	ledger, stocks := newTestLedger(t)

	require.NoError(t, ledger.Credit(ctx, "beans", "intake", 12))

	entry, err := stocks.Get(ctx, "beans", "intake")
	require.NoError(t, err)
	require.Equal(t, 12, entry.OnHand)

	require.NoError(t, ledger.Credit(ctx, "beans", "intake", 3))
	entry, err = stocks.Get(ctx, "beans", "intake")
	require.NoError(t, err)
	require.Equal(t, 15, entry.OnHand)

	require.ErrorIs(t, ledger.Credit(ctx, "beans", "intake", 0), domain.ErrInvalidArgument)
}

func TestGetAvailableUnknownPairIsZero(t *testing.T) {
	ledger, _ := newTestLedger(t)

	available, err := ledger.GetAvailable(context.Background(), "ghost", "A")
	require.NoError(t, err)
	require.Equal(t, 0, available)
}

func TestAllocateSplitsAcrossZones(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t,
		&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 10},
		&domain.StockEntry{ProductID: "rice", Zone: "B", OnHand: 10},
	)

	taken, err := ledger.Allocate(ctx, "rice", 15, "route-1", "dp-1")
	require.NoError(t, err)
	require.Len(t, taken, 2)
	require.Equal(t, "A", taken[0].Zone)
	require.Equal(t, 10, taken[0].Quantity)
	require.Equal(t, "B", taken[1].Zone)
	require.Equal(t, 5, taken[1].Quantity)

	availableA, err := ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 0, availableA)

	availableB, err := ledger.GetAvailable(ctx, "rice", "B")
	require.NoError(t, err)
	require.Equal(t, 5, availableB)
}

func TestAllocateRollsBackOnShortfall(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t,
		&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 10},
		&domain.StockEntry{ProductID: "rice", Zone: "B", OnHand: 10},
	)

	_, err := ledger.Allocate(ctx, "rice", 30, "route-1", "dp-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 30, stockErr.Requested)
	require.Equal(t, 20, stockErr.Available)

	// Partial holds taken along the way were released.
	for _, zone := range []string{"A", "B"} {
		available, err := ledger.GetAvailable(ctx, "rice", zone)
		require.NoError(t, err)
		require.Equal(t, 10, available, "zone %s", zone)
	}
}

func TestCommitRouteSettlesOnlyHeldReservations(t *testing.T) {
	ctx := context.Background()
	ledger, stocks := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	resKeep, err := ledger.Reserve(ctx, "rice", "A", 6, "route-1", "dp-1")
	require.NoError(t, err)
	resDrop, err := ledger.Reserve(ctx, "rice", "A", 4, "route-1", "dp-2")
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, resDrop.ID))

	require.NoError(t, ledger.CommitRoute(ctx, "route-1"))

	entry, err := stocks.Get(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 14, entry.OnHand)
	require.Equal(t, domain.ReservationCommitted, resKeep.State)
	require.Equal(t, domain.ReservationReleased, resDrop.State)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t, &domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 10})

	const workers = 8
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			_, err := ledger.Reserve(ctx, "rice", "A", 3, "route-1", "dp")
			results <- err
		}(i)
	}

	succeeded := 0
	for i := 0; i < workers; i++ {
		err := <-results
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 10 on hand and 3 per hold caps successful reserves at 3.
	require.Equal(t, 3, succeeded)

	available, err := ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 1, available)
}

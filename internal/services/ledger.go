package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"route-scheduling-service/internal/domain"
	"route-scheduling-service/internal/platform/obs"
	"route-scheduling-service/internal/ports"
)

// StockLedger owns every mutation of (product, zone) stock records and the
// reservation protocol on top of them. On-hand quantities live in the stock
// repository; outstanding holds live in an in-memory arena keyed by handle.
// All check-then-act sequences run under a per-(product, zone) lock, so the
// non-negative invariants hold under concurrent callers.
type StockLedger struct {
	stocks   ports.StockRepository
	cache    ports.AvailabilityCache
	logger   *zap.Logger
	locks    *keyLock
	lockWait time.Duration

	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	heldByKey    map[string]int
}

// NewStockLedger builds a ledger over the given stock repository.
// cache may be nil; availability queries then always hit the repository.
func NewStockLedger(stocks ports.StockRepository, cache ports.AvailabilityCache, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		stocks:       stocks,
		cache:        cache,
		logger:       logger,
		locks:        newKeyLock(),
		lockWait:     2 * time.Second,
		reservations: make(map[string]*domain.Reservation),
		heldByKey:    make(map[string]int),
	}
}

func stockKey(productID, zone string) string {
	return productID + "|" + zone
}

// Reserve places a hold on qty units of the product in the zone. It fails
// with InsufficientStock when on-hand minus existing holds cannot cover qty,
// leaving no side effects. routeID and destinationProductID tie the hold to
// the scheduling artifact that requested it.
func (l *StockLedger) Reserve(
	ctx context.Context,
	productID, zone string,
	qty int,
	routeID, destinationProductID string,
) (_ *domain.Reservation, err error) {
	defer obs.Time(ctx, "ledger.reserve")(&err)

	if qty <= 0 {
		return nil, fmt.Errorf("reserve %s in %s: qty %d: %w", productID, zone, qty, domain.ErrInvalidArgument)
	}

	release, err := l.locks.acquire(ctx, stockKey(productID, zone), l.lockWait)
	if err != nil {
		return nil, fmt.Errorf("reserve %s in %s: %w", productID, zone, err)
	}
	defer release()

	available, err := l.availableLocked(ctx, productID, zone)
	if err != nil {
		return nil, fmt.Errorf("reserve %s in %s: %w", productID, zone, err)
	}

	if qty > available {
		return nil, &domain.StockError{ProductID: productID, Zone: zone, Requested: qty, Available: available}
	}

	res := &domain.Reservation{
		ID:                   uuid.NewString(),
		ProductID:            productID,
		Zone:                 zone,
		Quantity:             qty,
		RouteID:              routeID,
		DestinationProductID: destinationProductID,
		State:                domain.ReservationHeld,
	}

	l.mu.Lock()
	l.reservations[res.ID] = res
	l.heldByKey[stockKey(productID, zone)] += qty
	l.mu.Unlock()

	l.invalidate(ctx, productID, zone)
	return res, nil
}

// Commit converts a held reservation into a permanent on-hand decrement.
// Committing an already-committed handle is a no-op success; committing a
// released handle is InvalidState.
func (l *StockLedger) Commit(ctx context.Context, reservationID string) (err error) {
	defer obs.Time(ctx, "ledger.commit")(&err)

	res, err := l.reservation(reservationID)
	if err != nil {
		return err
	}

	release, err := l.locks.acquire(ctx, stockKey(res.ProductID, res.Zone), l.lockWait)
	if err != nil {
		return fmt.Errorf("commit reservation %s: %w", reservationID, err)
	}
	defer release()

	switch res.State {
	case domain.ReservationCommitted:
		return nil
	case domain.ReservationReleased:
		return fmt.Errorf("commit reservation %s: already released: %w", reservationID, domain.ErrInvalidState)
	}

	entry, err := l.stocks.Get(ctx, res.ProductID, res.Zone)
	if err != nil {
		return fmt.Errorf("commit reservation %s: %w", reservationID, err)
	}

	// The hold guarantees on-hand covers the quantity; a shortfall here
	// means stock was mutated outside the ledger.
	if entry.OnHand < res.Quantity {
		return fmt.Errorf("commit reservation %s: on-hand %d below held %d: %w",
			reservationID, entry.OnHand, res.Quantity, domain.ErrInvalidState)
	}

	entry.OnHand -= res.Quantity
	if err := l.stocks.Upsert(ctx, entry); err != nil {
		// Persisting failed: the reservation stays held so a retry can settle it.
		return fmt.Errorf("commit reservation %s: %w", reservationID, err)
	}

	l.mu.Lock()
	res.State = domain.ReservationCommitted
	l.heldByKey[stockKey(res.ProductID, res.Zone)] -= res.Quantity
	l.mu.Unlock()

	l.invalidate(ctx, res.ProductID, res.Zone)
	return nil
}

// Release drops a held reservation without touching on-hand quantity.
// Releasing a settled handle is a no-op success.
func (l *StockLedger) Release(ctx context.Context, reservationID string) (err error) {
	defer obs.Time(ctx, "ledger.release")(&err)

	res, err := l.reservation(reservationID)
	if err != nil {
		return err
	}

	release, err := l.locks.acquire(ctx, stockKey(res.ProductID, res.Zone), l.lockWait)
	if err != nil {
		return fmt.Errorf("release reservation %s: %w", reservationID, err)
	}
	defer release()

	l.mu.Lock()
	if res.State == domain.ReservationHeld {
		res.State = domain.ReservationReleased
		l.heldByKey[stockKey(res.ProductID, res.Zone)] -= res.Quantity
	}
	l.mu.Unlock()

	l.invalidate(ctx, res.ProductID, res.Zone)
	return nil
}

// Credit increases on-hand quantity, creating the (product, zone) record if
// it does not exist yet. Used by donation reconciliation into the intake zone.
func (l *StockLedger) Credit(ctx context.Context, productID, zone string, qty int) (err error) {
	defer obs.Time(ctx, "ledger.credit")(&err)

	if qty <= 0 {
		return fmt.Errorf("credit %s in %s: qty %d: %w", productID, zone, qty, domain.ErrInvalidArgument)
	}

	release, err := l.locks.acquire(ctx, stockKey(productID, zone), l.lockWait)
	if err != nil {
		return fmt.Errorf("credit %s in %s: %w", productID, zone, err)
	}
	defer release()

	entry, err := l.stocks.Get(ctx, productID, zone)
	if errors.Is(err, domain.ErrNotFound) {
		entry = &domain.StockEntry{ProductID: productID, Zone: zone}
	} else if err != nil {
		return fmt.Errorf("credit %s in %s: %w", productID, zone, err)
	}

	entry.OnHand += qty
	if err := l.stocks.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("credit %s in %s: %w", productID, zone, err)
	}

	l.invalidate(ctx, productID, zone)
	return nil
}

// GetAvailable reports on-hand minus held for one (product, zone) pair.
// A product with no record in the zone has availability zero.
func (l *StockLedger) GetAvailable(ctx context.Context, productID, zone string) (_ int, err error) {
	defer obs.Time(ctx, "ledger.available")(&err)

	if l.cache != nil {
		if qty, ok, err := l.cache.Get(ctx, productID, zone); err == nil && ok {
			return qty, nil
		}
		// Cache errors degrade to a repository read.
	}

	release, err := l.locks.acquire(ctx, stockKey(productID, zone), l.lockWait)
	if err != nil {
		return 0, fmt.Errorf("available %s in %s: %w", productID, zone, err)
	}
	defer release()

	available, err := l.availableLocked(ctx, productID, zone)
	if err != nil {
		return 0, fmt.Errorf("available %s in %s: %w", productID, zone, err)
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, productID, zone, available); err != nil {
			l.logger.Warn("availability cache put failed",
				zap.String("product_id", productID), zap.String("zone", zone), zap.Error(err))
		}
	}

	return available, nil
}

// Allocate covers qty units of a product by reserving across zones in
// ascending zone order, splitting when one zone cannot cover the remainder.
// If no combination of zones covers qty, every hold taken along the way is
// released and the whole allocation fails with InsufficientStock.
func (l *StockLedger) Allocate(
	ctx context.Context,
	productID string,
	qty int,
	routeID, destinationProductID string,
) (_ []*domain.Reservation, err error) {
	defer obs.Time(ctx, "ledger.allocate")(&err)

	if qty <= 0 {
		return nil, fmt.Errorf("allocate %s: qty %d: %w", productID, qty, domain.ErrInvalidArgument)
	}

	entries, err := l.stocks.ListZones(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("allocate %s: %w", productID, err)
	}

	var taken []*domain.Reservation
	remaining := qty
	totalAvailable := 0

	for _, entry := range entries {
		if remaining == 0 {
			break
		}

		available, err := l.GetAvailable(ctx, productID, entry.Zone)
		if err != nil {
			l.releaseAll(ctx, taken)
			return nil, fmt.Errorf("allocate %s: %w", productID, err)
		}
		totalAvailable += available
		if available == 0 {
			continue
		}

		take := min(remaining, available)
		res, err := l.Reserve(ctx, productID, entry.Zone, take, routeID, destinationProductID)
		if err != nil {
			// A concurrent reserve can shrink availability between the read
			// and the hold; treat the shortfall like any other and move on.
			if errors.Is(err, domain.ErrInsufficientStock) {
				continue
			}
			l.releaseAll(ctx, taken)
			return nil, fmt.Errorf("allocate %s: %w", productID, err)
		}

		taken = append(taken, res)
		remaining -= take
	}

	if remaining > 0 {
		l.releaseAll(ctx, taken)
		return nil, &domain.StockError{ProductID: productID, Requested: qty, Available: totalAvailable}
	}

	return taken, nil
}

// CommitRoute settles every outstanding hold taken for the route.
// Already-settled holds are skipped, so a retried completion finishes the
// remainder instead of failing.
func (l *StockLedger) CommitRoute(ctx context.Context, routeID string) error {
	for _, res := range l.reservationsForRoute(routeID) {
		if err := l.Commit(ctx, res.ID); err != nil {
			return fmt.Errorf("commit route %s: %w", routeID, err)
		}
	}
	return nil
}

// ReleaseRoute drops every outstanding hold taken for the route.
func (l *StockLedger) ReleaseRoute(ctx context.Context, routeID string) error {
	for _, res := range l.reservationsForRoute(routeID) {
		if err := l.Release(ctx, res.ID); err != nil {
			return fmt.Errorf("release route %s: %w", routeID, err)
		}
	}
	return nil
}

// ReleaseProduct drops the holds backing one destination product.
func (l *StockLedger) ReleaseProduct(ctx context.Context, destinationProductID string) error {
	l.mu.Lock()
	var ids []string
	for _, res := range l.reservations {
		if res.DestinationProductID == destinationProductID {
			ids = append(ids, res.ID)
		}
	}
	l.mu.Unlock()

	for _, id := range ids {
		if err := l.Release(ctx, id); err != nil {
			return fmt.Errorf("release product %s: %w", destinationProductID, err)
		}
	}
	return nil
}

// availableLocked computes on-hand minus held. Callers hold the key lock.
func (l *StockLedger) availableLocked(ctx context.Context, productID, zone string) (int, error) {
	entry, err := l.stocks.Get(ctx, productID, zone)
	if errors.Is(err, domain.ErrNotFound) {
		entry = &domain.StockEntry{ProductID: productID, Zone: zone}
	} else if err != nil {
		return 0, err
	}

	l.mu.Lock()
	held := l.heldByKey[stockKey(productID, zone)]
	l.mu.Unlock()

	return entry.OnHand - held, nil
}

func (l *StockLedger) reservation(id string) (*domain.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}
	return res, nil
}

func (l *StockLedger) reservationsForRoute(routeID string) []*domain.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Reservation
	for _, res := range l.reservations {
		if res.RouteID == routeID && res.State == domain.ReservationHeld {
			out = append(out, res)
		}
	}
	return out
}

func (l *StockLedger) releaseAll(ctx context.Context, taken []*domain.Reservation) {
	for _, res := range taken {
		if err := l.Release(ctx, res.ID); err != nil {
			l.logger.Warn("rollback release failed",
				zap.String("reservation_id", res.ID), zap.Error(err))
		}
	}
}

func (l *StockLedger) invalidate(ctx context.Context, productID, zone string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx, productID, zone); err != nil {
		l.logger.Warn("availability cache invalidate failed",
			zap.String("product_id", productID), zap.String("zone", zone), zap.Error(err))
	}
}

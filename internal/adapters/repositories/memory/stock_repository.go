package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"route-scheduling-service/internal/domain"
)

// In-memory implementation of the StockRepository port.
type StockRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.StockEntry
}

func NewStockRepository() *StockRepository {
	return &StockRepository{entries: make(map[string]*domain.StockEntry)}
}

func stockKey(productID, zone string) string { return productID + "|" + zone }

// Seed loads initial stock without going through the ledger. Test setup only.
func (r *StockRepository) Seed(entries ...*domain.StockEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		ec := *e
		r.entries[stockKey(e.ProductID, e.Zone)] = &ec
	}
}

func (r *StockRepository) Get(ctx context.Context, productID, zone string) (*domain.StockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[stockKey(productID, zone)]
	if !ok {
		return nil, fmt.Errorf("stock %s in %s: %w", productID, zone, domain.ErrNotFound)
	}
	ec := *entry
	return &ec, nil
}

func (r *StockRepository) ListZones(ctx context.Context, productID string) ([]*domain.StockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.StockEntry
	for _, entry := range r.entries {
		if entry.ProductID == productID {
			ec := *entry
			out = append(out, &ec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out, nil
}

func (r *StockRepository) Upsert(ctx context.Context, entry *domain.StockEntry) error {
	if entry.OnHand < 0 {
		return fmt.Errorf("stock %s in %s: negative on-hand %d: %w",
			entry.ProductID, entry.Zone, entry.OnHand, domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ec := *entry
	r.entries[stockKey(entry.ProductID, entry.Zone)] = &ec
	return nil
}

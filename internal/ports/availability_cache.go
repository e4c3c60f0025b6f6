package ports

import "context"

// Port: read-through cache in front of stock availability queries.
// The ledger invalidates entries on every mutation; a miss is not an error.
type AvailabilityCache interface {
	// Get returns (qty, true) on a hit and (0, false) on a miss.
	Get(ctx context.Context, productID, zone string) (int, bool, error)
	Put(ctx context.Context, productID, zone string, qty int) error
	Invalidate(ctx context.Context, productID, zone string) error
}

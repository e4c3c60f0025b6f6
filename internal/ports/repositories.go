package ports

import (
	"context"
	"time"

	"route-scheduling-service/internal/domain"
)

// Port: persistence boundary for the Route aggregate. Get returns the full
// aggregate (destinations and their products loaded); finer-grained writes
// exist so adapters can persist mutations without rewriting the whole tree.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error

	// Get returns ErrNotFound when no route has the id.
	Get(ctx context.Context, routeID string) (*domain.Route, error)

	// GetByDestination resolves the owning route of a destination.
	GetByDestination(ctx context.Context, destinationID string) (*domain.Route, error)

	// GetByProduct resolves the owning route of a destination product.
	GetByProduct(ctx context.Context, destinationProductID string) (*domain.Route, error)

	// ActiveForTruck reports whether a non-cancelled route occupies the truck
	// on the date. excludeRouteID ("" for none) skips one route, so a truck
	// reassignment does not conflict with the route being reassigned.
	ActiveForTruck(ctx context.Context, truckID string, date time.Time, excludeRouteID string) (bool, error)

	// ActiveForUser is ActiveForTruck for the driver dimension.
	ActiveForUser(ctx context.Context, userID string, date time.Time, excludeRouteID string) (bool, error)

	UpdateStatus(ctx context.Context, routeID string, status domain.RouteStatus, completedAt *time.Time) error
	UpdateTruck(ctx context.Context, routeID, truckID string) error

	AddDestination(ctx context.Context, dest *domain.Destination) error

	// RemoveDestinationsByRoute detaches every destination (and cascades to
	// their products) as part of route cancellation.
	RemoveDestinationsByRoute(ctx context.Context, routeID string) error

	AddProduct(ctx context.Context, product *domain.DestinationProduct) error

	// RemoveProduct returns ErrNotFound when the row does not exist.
	RemoveProduct(ctx context.Context, destinationProductID string) error
}

// Port: persistence boundary for (product, zone) stock records.
// Only the stock ledger may call the mutating side.
type StockRepository interface {
	// Get returns ErrNotFound when the product has no record in the zone.
	Get(ctx context.Context, productID, zone string) (*domain.StockEntry, error)

	// ListZones returns every zone holding the product, in ascending zone
	// order. Allocation walks this order deterministically.
	ListZones(ctx context.Context, productID string) ([]*domain.StockEntry, error)

	Upsert(ctx context.Context, entry *domain.StockEntry) error
}

// Port: persistence boundary for donations.
type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error

	// Get returns ErrNotFound when no donation has the id.
	Get(ctx context.Context, donationID string) (*domain.Donation, error)

	ListByRoute(ctx context.Context, routeID string) ([]*domain.Donation, error)
	Update(ctx context.Context, donation *domain.Donation) error
}

// Port: persistence boundary for calendar entries and their route links.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) error

	// Get returns ErrNotFound when no schedule has the id.
	Get(ctx context.Context, scheduleID string) (*domain.Schedule, error)

	Link(ctx context.Context, scheduleID, routeID string) error
	UnlinkByRoute(ctx context.Context, routeID string) error
}

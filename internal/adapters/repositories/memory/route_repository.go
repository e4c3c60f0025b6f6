package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"route-scheduling-service/internal/domain"
)

// In-memory implementation of the RouteRepository port, used by tests and
// local runs without postgres. Aggregates are deep-copied on the way in and
// out so callers never alias the stored state.
type RouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

func NewRouteRepository() *RouteRepository {
	return &RouteRepository{routes: make(map[string]*domain.Route)}
}

func cloneRoute(r *domain.Route) *domain.Route {
	out := *r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		out.CompletedAt = &at
	}
	out.Destinations = make([]*domain.Destination, 0, len(r.Destinations))
	for _, d := range r.Destinations {
		dc := *d
		dc.Products = make([]*domain.DestinationProduct, 0, len(d.Products))
		for _, p := range d.Products {
			pc := *p
			dc.Products = append(dc.Products, &pc)
		}
		out.Destinations = append(out.Destinations, &dc)
	}
	return &out
}

func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[route.ID]; ok {
		return fmt.Errorf("route %s already exists", route.ID)
	}
	r.routes[route.ID] = cloneRoute(route)
	return nil
}

func (r *RouteRepository) Get(ctx context.Context, routeID string) (*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	return cloneRoute(route), nil
}

func (r *RouteRepository) GetByDestination(ctx context.Context, destinationID string) (*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.FindDestination(destinationID) != nil {
			return cloneRoute(route), nil
		}
	}
	return nil, fmt.Errorf("destination %s: %w", destinationID, domain.ErrNotFound)
}

func (r *RouteRepository) GetByProduct(ctx context.Context, destinationProductID string) (*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if _, p := route.FindProduct(destinationProductID); p != nil {
			return cloneRoute(route), nil
		}
	}
	return nil, fmt.Errorf("destination product %s: %w", destinationProductID, domain.ErrNotFound)
}

func (r *RouteRepository) ActiveForTruck(ctx context.Context, truckID string, date time.Time, excludeRouteID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.ID == excludeRouteID {
			continue
		}
		if route.TruckID == truckID && route.Active() && domain.DateOnly(route.Date).Equal(domain.DateOnly(date)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *RouteRepository) ActiveForUser(ctx context.Context, userID string, date time.Time, excludeRouteID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.ID == excludeRouteID {
			continue
		}
		if route.UserID == userID && route.Active() && domain.DateOnly(route.Date).Equal(domain.DateOnly(date)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *RouteRepository) UpdateStatus(ctx context.Context, routeID string, status domain.RouteStatus, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	route.Status = status
	if completedAt != nil {
		at := *completedAt
		route.CompletedAt = &at
	}
	return nil
}

func (r *RouteRepository) UpdateTruck(ctx context.Context, routeID, truckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	route.TruckID = truckID
	return nil
}

func (r *RouteRepository) AddDestination(ctx context.Context, dest *domain.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[dest.RouteID]
	if !ok {
		return fmt.Errorf("route %s: %w", dest.RouteID, domain.ErrNotFound)
	}
	dc := *dest
	dc.Products = nil
	route.Destinations = append(route.Destinations, &dc)
	return nil
}

func (r *RouteRepository) RemoveDestinationsByRoute(ctx context.Context, routeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok {
		return fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	route.Destinations = nil
	return nil
}

func (r *RouteRepository) AddProduct(ctx context.Context, product *domain.DestinationProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, route := range r.routes {
		for _, d := range route.Destinations {
			if d.ID == product.DestinationID {
				pc := *product
				d.Products = append(d.Products, &pc)
				return nil
			}
		}
	}
	return fmt.Errorf("destination %s: %w", product.DestinationID, domain.ErrNotFound)
}

func (r *RouteRepository) RemoveProduct(ctx context.Context, destinationProductID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, route := range r.routes {
		for _, d := range route.Destinations {
			for i, p := range d.Products {
				if p.ID == destinationProductID {
					d.Products = append(d.Products[:i], d.Products[i+1:]...)
					return nil
				}
			}
		}
	}
	return fmt.Errorf("destination product %s: %w", destinationProductID, domain.ErrNotFound)
}

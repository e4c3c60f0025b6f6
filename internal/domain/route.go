package domain

import (
	"fmt"
	"time"
)

// RouteType is the two-variant tag distinguishing collection runs (field ->
// warehouse) from distribution runs (warehouse -> field). Destinations carry
// the same tag and must match their parent route.
type RouteType string

const (
	RouteCollect    RouteType = "collect"
	RouteDistribute RouteType = "distribute"
)

func (t RouteType) Valid() bool {
	return t == RouteCollect || t == RouteDistribute
}

// RouteStatus models the lifecycle Planned -> InProgress -> Completed, with
// Cancelled reachable from the two non-terminal states.
type RouteStatus string

const (
	RoutePlanned    RouteStatus = "planned"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
	RouteCancelled  RouteStatus = "cancelled"
)

func (s RouteStatus) Terminal() bool {
	return s == RouteCompleted || s == RouteCancelled
}

// Route is a single dated truck+driver assignment. It exclusively owns its
// destinations and, through them, their destination products.
type Route struct {
	ID           string
	Date         time.Time
	Type         RouteType
	Status       RouteStatus
	TruckID      string
	UserID       string
	Destinations []*Destination
	CompletedAt  *time.Time
}

// Destination is one stop on a route. It never exists without a parent route
// and its type always equals the parent's.
type Destination struct {
	ID       string
	RouteID  string
	Address  string
	Type     RouteType
	Products []*DestinationProduct
}

// DestinationProduct is a (product, quantity) pair assigned to one stop.
type DestinationProduct struct {
	ID            string
	DestinationID string
	ProductID     string
	Quantity      int
}

// DateOnly truncates a timestamp to its calendar day in UTC. Route booking
// conflicts and schedule links compare dates at this granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Active reports whether the route still occupies its truck and driver for
// the day. Completed routes keep the booking; only cancellation frees it.
func (r *Route) Active() bool {
	return r.Status != RouteCancelled
}

// TotalQuantity sums destination-product quantities across every stop.
// This is the number the capacity invariant compares against the truck.
func (r *Route) TotalQuantity() int {
	total := 0
	for _, d := range r.Destinations {
		for _, p := range d.Products {
			total += p.Quantity
		}
	}
	return total
}

// Attach adds a destination, rejecting a type that differs from the route's.
func (r *Route) Attach(d *Destination) error {
	if d.Type != r.Type {
		return fmt.Errorf("attach destination to route %s: destination type %q on %q route: %w",
			r.ID, d.Type, r.Type, ErrTypeMismatch)
	}
	d.RouteID = r.ID
	r.Destinations = append(r.Destinations, d)
	return nil
}

func (r *Route) FindDestination(destinationID string) *Destination {
	for _, d := range r.Destinations {
		if d.ID == destinationID {
			return d
		}
	}
	return nil
}

// FindProduct locates a destination product anywhere on the route.
func (r *Route) FindProduct(destinationProductID string) (*Destination, *DestinationProduct) {
	for _, d := range r.Destinations {
		for _, p := range d.Products {
			if p.ID == destinationProductID {
				return d, p
			}
		}
	}
	return nil, nil
}

// Start moves a planned route into execution.
func (r *Route) Start() error {
	if r.Status != RoutePlanned {
		return fmt.Errorf("start route %s: status %s: %w", r.ID, r.Status, ErrInvalidState)
	}
	r.Status = RouteInProgress
	return nil
}

// Complete finishes an in-progress route and records the completion time.
func (r *Route) Complete(at time.Time) error {
	if r.Status != RouteInProgress {
		return fmt.Errorf("complete route %s: status %s: %w", r.ID, r.Status, ErrInvalidState)
	}
	r.Status = RouteCompleted
	r.CompletedAt = &at
	return nil
}

// Cancel is allowed from Planned or InProgress only.
func (r *Route) Cancel() error {
	if r.Status.Terminal() {
		return fmt.Errorf("cancel route %s: status %s: %w", r.ID, r.Status, ErrInvalidState)
	}
	r.Status = RouteCancelled
	return nil
}

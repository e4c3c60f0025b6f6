package domain

import (
	"errors"
	"fmt"
)

// Every failure mode of the scheduling core is one of these typed outcomes.
// Callers branch with errors.Is; failures that carry numbers wrap the
// sentinel through Unwrap so both the tag and the detail survive wrapping.
var (
	// ErrConflict: the truck or the driver already holds an active route on that date.
	ErrConflict = errors.New("scheduling conflict")

	// ErrTypeMismatch: collect and distribute artifacts mixed on one route.
	ErrTypeMismatch = errors.New("route type mismatch")

	// ErrCapacityExceeded: the route's product total would pass the truck's capacity.
	ErrCapacityExceeded = errors.New("truck capacity exceeded")

	// ErrInsufficientStock: a reservation asked for more than is available.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidState: illegal route lifecycle transition or settled reservation reuse.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound: a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBusy: a resource lock could not be acquired in time. Safe to retry.
	ErrBusy = errors.New("resource busy")

	// ErrUnavailable: an external collaborator is transiently unreachable. Safe to retry.
	ErrUnavailable = errors.New("dependency unavailable")

	// ErrInvalidArgument: non-positive quantity or otherwise malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CapacityError reports how far a proposed load is over the truck's limit.
type CapacityError struct {
	RouteID  string
	Proposed int
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("route %s: %d units against capacity %d: %v", e.RouteID, e.Proposed, e.Limit, ErrCapacityExceeded)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// StockError reports a reservation shortfall for one product.
// Zone is empty when the shortfall spans every zone the product is stocked in.
type StockError struct {
	ProductID string
	Zone      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if e.Zone == "" {
		return fmt.Sprintf("product %s: requested %d, %d available across all zones: %v",
			e.ProductID, e.Requested, e.Available, ErrInsufficientStock)
	}
	return fmt.Sprintf("product %s zone %s: requested %d, %d available: %v",
		e.ProductID, e.Zone, e.Requested, e.Available, ErrInsufficientStock)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

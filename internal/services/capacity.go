package services

import (
	"context"
	"fmt"

	"route-scheduling-service/internal/domain"
	"route-scheduling-service/internal/platform/obs"
	"route-scheduling-service/internal/ports"
)

// CapacityPlanner validates the central feasibility invariant: the sum of
// destination-product quantities on a route never exceeds the assigned
// truck's capacity. Checks are evaluated against the hypothetical
// post-mutation total, so a rejected mutation leaves no state behind.
type CapacityPlanner struct {
	fleet ports.FleetProvider
}

func NewCapacityPlanner(fleet ports.FleetProvider) *CapacityPlanner {
	return &CapacityPlanner{fleet: fleet}
}

// Check validates the route's current total plus extra proposed units
// against the assigned truck. extra is zero when re-validating as-is.
func (p *CapacityPlanner) Check(ctx context.Context, route *domain.Route, extra int) (err error) {
	defer obs.Time(ctx, "capacity.check")(&err)
	return p.CheckAgainst(ctx, route, route.TruckID, extra)
}

// CheckAgainst validates against an arbitrary truck, used when a planner
// proposes reassigning the route to a different vehicle.
func (p *CapacityPlanner) CheckAgainst(ctx context.Context, route *domain.Route, truckID string, extra int) error {
	truck, err := p.fleet.GetTruck(ctx, truckID)
	if err != nil {
		return fmt.Errorf("capacity check route %s: truck %s: %w", route.ID, truckID, err)
	}

	proposed := route.TotalQuantity() + extra
	if proposed > truck.Capacity {
		return &domain.CapacityError{RouteID: route.ID, Proposed: proposed, Limit: truck.Capacity}
	}
	return nil
}

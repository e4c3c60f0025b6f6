package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"route-scheduling-service/internal/domain"
	"route-scheduling-service/internal/platform/obs"
	"route-scheduling-service/internal/ports"
)

// RouteScheduler owns the route lifecycle: creation with double-booking
// checks, destination and product planning guarded by the capacity planner
// and the stock ledger, and the Planned -> InProgress -> Completed /
// Cancelled transitions. Mutations on one route serialize through a
// per-route lock; Busy outcomes from lock contention are retried with
// backoff before they reach the caller.
type RouteScheduler struct {
	routes     ports.RouteRepository
	schedules  ports.ScheduleRepository
	fleet      ports.FleetProvider
	catalog    ports.ProductCatalog
	ledger     *StockLedger
	capacity   *CapacityPlanner
	reconciler *DonationReconciler
	gate       *EligibilityGate
	logger     *zap.Logger

	locks    *keyLock
	lockWait time.Duration
	retry    retryPolicy
	now      func() time.Time
}

func NewRouteScheduler(
	routes ports.RouteRepository,
	schedules ports.ScheduleRepository,
	fleet ports.FleetProvider,
	catalog ports.ProductCatalog,
	ledger *StockLedger,
	capacity *CapacityPlanner,
	reconciler *DonationReconciler,
	gate *EligibilityGate,
	logger *zap.Logger,
) *RouteScheduler {
	return &RouteScheduler{
		routes:     routes,
		schedules:  schedules,
		fleet:      fleet,
		catalog:    catalog,
		ledger:     ledger,
		capacity:   capacity,
		reconciler: reconciler,
		gate:       gate,
		logger:     logger,
		locks:      newKeyLock(),
		lockWait:   2 * time.Second,
		retry:      defaultRetryPolicy(),
		now:        time.Now,
	}
}

func routeKey(routeID string) string { return "route|" + routeID }

type CreateRouteRequest struct {
	Date    time.Time
	Type    domain.RouteType
	TruckID string
	UserID  string

	// RequiredSkillID carries the category's skill requirement when the
	// assignment is ticket-driven; empty means no eligibility constraint.
	RequiredSkillID string
}

// CreateRoute books a truck and a driver for a dated run. It fails with
// Conflict when either already holds an active route on that date.
func (s *RouteScheduler) CreateRoute(ctx context.Context, req CreateRouteRequest) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "scheduler.create_route")(&err)

	if !req.Type.Valid() {
		return nil, fmt.Errorf("create route: type %q: %w", req.Type, domain.ErrInvalidArgument)
	}
	if req.TruckID == "" || req.UserID == "" {
		return nil, fmt.Errorf("create route: truck and user are required: %w", domain.ErrInvalidArgument)
	}

	eligible, err := s.gate.CanAssign(ctx, req.UserID, req.RequiredSkillID)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	if !eligible {
		return nil, fmt.Errorf("create route: user %s lacks validated skill %s: %w",
			req.UserID, req.RequiredSkillID, domain.ErrInvalidArgument)
	}

	if _, err := s.fleet.GetTruck(ctx, req.TruckID); err != nil {
		return nil, fmt.Errorf("create route: truck %s: %w", req.TruckID, err)
	}

	date := domain.DateOnly(req.Date)
	day := date.Format(time.DateOnly)

	var route *domain.Route
	err = withRetry(ctx, s.retry, func() error {
		// Truck lock before user lock, always, so concurrent creations
		// cannot deadlock on each other.
		releaseTruck, err := s.locks.acquire(ctx, "truck|"+req.TruckID+"|"+day, s.lockWait)
		if err != nil {
			return err
		}
		defer releaseTruck()

		releaseUser, err := s.locks.acquire(ctx, "user|"+req.UserID+"|"+day, s.lockWait)
		if err != nil {
			return err
		}
		defer releaseUser()

		booked, err := s.routes.ActiveForTruck(ctx, req.TruckID, date, "")
		if err != nil {
			return err
		}
		if booked {
			return fmt.Errorf("truck %s already booked on %s: %w", req.TruckID, day, domain.ErrConflict)
		}

		booked, err = s.routes.ActiveForUser(ctx, req.UserID, date, "")
		if err != nil {
			return err
		}
		if booked {
			return fmt.Errorf("user %s already booked on %s: %w", req.UserID, day, domain.ErrConflict)
		}

		route = &domain.Route{
			ID:      uuid.NewString(),
			Date:    date,
			Type:    req.Type,
			Status:  domain.RoutePlanned,
			TruckID: req.TruckID,
			UserID:  req.UserID,
		}
		return s.routes.Create(ctx, route)
	})
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}

	s.logger.Info("route created",
		zap.String("route_id", route.ID),
		zap.String("type", string(route.Type)),
		zap.String("truck_id", route.TruckID),
		zap.String("user_id", route.UserID),
		zap.String("date", day))
	return route, nil
}

// GetRoute returns the full route aggregate.
func (s *RouteScheduler) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	return s.routes.Get(ctx, routeID)
}

// AddDestination attaches a stop to a non-terminal route. The destination
// type must equal the route's.
func (s *RouteScheduler) AddDestination(ctx context.Context, routeID, address string, destType domain.RouteType) (_ *domain.Destination, err error) {
	defer obs.Time(ctx, "scheduler.add_destination")(&err)

	if address == "" {
		return nil, fmt.Errorf("add destination: address is required: %w", domain.ErrInvalidArgument)
	}

	var dest *domain.Destination
	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}
		if route.Status.Terminal() {
			return fmt.Errorf("route %s is %s: %w", routeID, route.Status, domain.ErrInvalidState)
		}

		dest = &domain.Destination{ID: uuid.NewString(), Address: address, Type: destType}
		if err := route.Attach(dest); err != nil {
			return err
		}
		return s.routes.AddDestination(ctx, dest)
	})
	if err != nil {
		return nil, fmt.Errorf("add destination: %w", err)
	}
	return dest, nil
}

// AddProduct assigns (product, qty) to a destination. For distribution
// routes stock is reserved first; the capacity check runs after, and on a
// capacity failure the reservation just taken is rolled back. Nothing is
// persisted unless both checks pass.
func (s *RouteScheduler) AddProduct(ctx context.Context, destinationID, productID string, qty int) (_ *domain.DestinationProduct, err error) {
	defer obs.Time(ctx, "scheduler.add_product")(&err)

	if qty <= 0 {
		return nil, fmt.Errorf("add product: qty %d: %w", qty, domain.ErrInvalidArgument)
	}

	owner, err := s.routes.GetByDestination(ctx, destinationID)
	if err != nil {
		return nil, fmt.Errorf("add product: destination %s: %w", destinationID, err)
	}

	var product *domain.DestinationProduct
	err = s.withRouteLock(ctx, owner.ID, func() error {
		// Re-read under the lock so the capacity check sees a consistent
		// snapshot of the route.
		route, err := s.routes.Get(ctx, owner.ID)
		if err != nil {
			return err
		}
		if route.Status.Terminal() {
			return fmt.Errorf("route %s is %s: %w", route.ID, route.Status, domain.ErrInvalidState)
		}

		dest := route.FindDestination(destinationID)
		if dest == nil {
			return fmt.Errorf("destination %s: %w", destinationID, domain.ErrNotFound)
		}

		exists, err := s.catalog.ProductExists(ctx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}

		productRowID := uuid.NewString()

		var reservations []*domain.Reservation
		if route.Type == domain.RouteDistribute {
			reservations, err = s.ledger.Allocate(ctx, productID, qty, route.ID, productRowID)
			if err != nil {
				return err
			}
		}

		if err := s.capacity.Check(ctx, route, qty); err != nil {
			s.ledger.releaseAll(ctx, reservations)
			return err
		}

		product = &domain.DestinationProduct{
			ID:            productRowID,
			DestinationID: destinationID,
			ProductID:     productID,
			Quantity:      qty,
		}
		if err := s.routes.AddProduct(ctx, product); err != nil {
			s.ledger.releaseAll(ctx, reservations)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	return product, nil
}

// RemoveProduct deletes a destination product and releases any stock holds
// backing it.
func (s *RouteScheduler) RemoveProduct(ctx context.Context, destinationProductID string) (err error) {
	defer obs.Time(ctx, "scheduler.remove_product")(&err)

	owner, err := s.routes.GetByProduct(ctx, destinationProductID)
	if err != nil {
		return fmt.Errorf("remove product %s: %w", destinationProductID, err)
	}

	err = s.withRouteLock(ctx, owner.ID, func() error {
		route, err := s.routes.Get(ctx, owner.ID)
		if err != nil {
			return err
		}
		if route.Status.Terminal() {
			return fmt.Errorf("route %s is %s: %w", route.ID, route.Status, domain.ErrInvalidState)
		}

		if err := s.ledger.ReleaseProduct(ctx, destinationProductID); err != nil {
			return err
		}
		return s.routes.RemoveProduct(ctx, destinationProductID)
	})
	if err != nil {
		return fmt.Errorf("remove product %s: %w", destinationProductID, err)
	}
	return nil
}

// Start transitions Planned -> InProgress.
func (s *RouteScheduler) Start(ctx context.Context, routeID string) (err error) {
	defer obs.Time(ctx, "scheduler.start")(&err)

	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}
		if err := route.Start(); err != nil {
			return err
		}
		return s.routes.UpdateStatus(ctx, routeID, domain.RouteInProgress, nil)
	})
	if err != nil {
		return fmt.Errorf("start route: %w", err)
	}
	return nil
}

// CompletionResult is what a finished route reports back: the terminal
// aggregate plus any per-donation reconciliation failures (collection
// routes only; never fatal to the completion itself).
type CompletionResult struct {
	Route                *domain.Route
	ReconciliationErrors []ReconciliationError
}

// Complete transitions InProgress -> Completed. Distribution routes commit
// every outstanding stock hold; collection routes run donation
// reconciliation. A failure while committing leaves the route InProgress so
// a retry can settle the remaining holds (commit is idempotent).
func (s *RouteScheduler) Complete(ctx context.Context, routeID string) (_ *CompletionResult, err error) {
	defer obs.Time(ctx, "scheduler.complete")(&err)

	var result *CompletionResult
	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}

		completedAt := s.now().UTC()
		if err := route.Complete(completedAt); err != nil {
			return err
		}

		var failures []ReconciliationError
		switch route.Type {
		case domain.RouteDistribute:
			if err := s.ledger.CommitRoute(ctx, routeID); err != nil {
				return err
			}
		case domain.RouteCollect:
			failures, err = s.reconciler.Reconcile(ctx, routeID, completedAt)
			if err != nil {
				return err
			}
		}

		if err := s.routes.UpdateStatus(ctx, routeID, domain.RouteCompleted, &completedAt); err != nil {
			return err
		}

		result = &CompletionResult{Route: route, ReconciliationErrors: failures}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete route: %w", err)
	}

	s.logger.Info("route completed",
		zap.String("route_id", routeID),
		zap.Int("reconciliation_failures", len(result.ReconciliationErrors)))
	return result, nil
}

// Cancel tears a route down from Planned or InProgress: every stock hold is
// released, linked donations revert to pending, schedule links are removed
// and the destinations are detached. The route row itself stays, marked
// Cancelled, which frees the (truck, date) and (user, date) bookings.
func (s *RouteScheduler) Cancel(ctx context.Context, routeID string) (err error) {
	defer obs.Time(ctx, "scheduler.cancel")(&err)

	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}
		if err := route.Cancel(); err != nil {
			return err
		}

		if err := s.ledger.ReleaseRoute(ctx, routeID); err != nil {
			return err
		}
		if err := s.reconciler.Unlink(ctx, routeID); err != nil {
			return err
		}
		if err := s.schedules.UnlinkByRoute(ctx, routeID); err != nil {
			return err
		}
		if err := s.routes.RemoveDestinationsByRoute(ctx, routeID); err != nil {
			return err
		}
		return s.routes.UpdateStatus(ctx, routeID, domain.RouteCancelled, nil)
	})
	if err != nil {
		return fmt.Errorf("cancel route: %w", err)
	}

	s.logger.Info("route cancelled", zap.String("route_id", routeID))
	return nil
}

// ReassignTruck swaps the route onto another truck after re-running the
// booking and capacity checks against it. On any failure the original truck
// stays assigned.
func (s *RouteScheduler) ReassignTruck(ctx context.Context, routeID, truckID string) (err error) {
	defer obs.Time(ctx, "scheduler.reassign_truck")(&err)

	if truckID == "" {
		return fmt.Errorf("reassign truck: truck is required: %w", domain.ErrInvalidArgument)
	}

	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}
		if route.Status.Terminal() {
			return fmt.Errorf("route %s is %s: %w", routeID, route.Status, domain.ErrInvalidState)
		}
		if route.TruckID == truckID {
			return nil
		}

		booked, err := s.routes.ActiveForTruck(ctx, truckID, route.Date, routeID)
		if err != nil {
			return err
		}
		if booked {
			return fmt.Errorf("truck %s already booked on %s: %w",
				truckID, route.Date.Format(time.DateOnly), domain.ErrConflict)
		}

		if err := s.capacity.CheckAgainst(ctx, route, truckID, 0); err != nil {
			return err
		}
		return s.routes.UpdateTruck(ctx, routeID, truckID)
	})
	if err != nil {
		return fmt.Errorf("reassign truck: %w", err)
	}
	return nil
}

// LinkSchedule attaches a calendar entry to the route. The entry's date
// must match the route's date; the mapping is derived data, so the check
// happens here at write time rather than structurally.
func (s *RouteScheduler) LinkSchedule(ctx context.Context, scheduleID, routeID string) (err error) {
	defer obs.Time(ctx, "scheduler.link_schedule")(&err)

	err = s.withRouteLock(ctx, routeID, func() error {
		route, err := s.routes.Get(ctx, routeID)
		if err != nil {
			return err
		}
		if route.Status.Terminal() {
			return fmt.Errorf("route %s is %s: %w", routeID, route.Status, domain.ErrInvalidState)
		}

		schedule, err := s.schedules.Get(ctx, scheduleID)
		if err != nil {
			return err
		}
		if !domain.DateOnly(schedule.Date).Equal(domain.DateOnly(route.Date)) {
			return fmt.Errorf("schedule %s date %s does not match route date %s: %w",
				scheduleID,
				schedule.Date.Format(time.DateOnly),
				route.Date.Format(time.DateOnly),
				domain.ErrInvalidArgument)
		}
		return s.schedules.Link(ctx, scheduleID, routeID)
	})
	if err != nil {
		return fmt.Errorf("link schedule: %w", err)
	}
	return nil
}

// LinkDonation delegates to the reconciler under the route lock, so a
// concurrent completion or cancellation cannot interleave with the link.
func (s *RouteScheduler) LinkDonation(ctx context.Context, donationID, routeID string) error {
	return s.withRouteLock(ctx, routeID, func() error {
		return s.reconciler.LinkDonation(ctx, donationID, routeID)
	})
}

// withRouteLock serializes fn against every other mutation of the route,
// retrying bounded lock contention before surfacing Busy.
func (s *RouteScheduler) withRouteLock(ctx context.Context, routeID string, fn func() error) error {
	return withRetry(ctx, s.retry, func() error {
		release, err := s.locks.acquire(ctx, routeKey(routeID), s.lockWait)
		if err != nil {
			return err
		}
		defer release()
		return fn()
	})
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"route-scheduling-service/internal/adapters/collab"
	"route-scheduling-service/internal/adapters/repositories/memory"
	"route-scheduling-service/internal/domain"
)

type schedulerFixture struct {
	scheduler *RouteScheduler
	ledger    *StockLedger

	routes    *memory.RouteRepository
	stocks    *memory.StockRepository
	donations *memory.DonationRepository
	schedules *memory.ScheduleRepository
	fleet     *collab.MockFleetProvider
	skills    *collab.MockSkillProvider
	catalog   *collab.MockProductCatalog
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &schedulerFixture{
		routes:    memory.NewRouteRepository(),
		stocks:    memory.NewStockRepository(),
		donations: memory.NewDonationRepository(),
		schedules: memory.NewScheduleRepository(),
		fleet: &collab.MockFleetProvider{Trucks: map[string]*domain.Truck{
			"truck-1": {ID: "truck-1", Registration: "AB-123-CD", Capacity: 10, Condition: 1},
			"truck-2": {ID: "truck-2", Registration: "EF-456-GH", Capacity: 5, Condition: 1},
			"truck-3": {ID: "truck-3", Registration: "IJ-789-KL", Capacity: 50, Condition: 3},
		}},
		skills: &collab.MockSkillProvider{Validated: map[string][]string{
			"user-1": {"driving-b", "forklift"},
		}},
		catalog: &collab.MockProductCatalog{Products: map[string]bool{
			"rice": true, "flour": true, "oil": true,
		}},
	}

	f.ledger = NewStockLedger(f.stocks, nil, logger)
	capacity := NewCapacityPlanner(f.fleet)
	reconciler := NewDonationReconciler(f.donations, f.routes, f.catalog, f.ledger, "intake", logger)
	gate := NewEligibilityGate(f.skills)
	f.scheduler = NewRouteScheduler(f.routes, f.schedules, f.fleet, f.catalog, f.ledger, capacity, reconciler, gate, logger)
	return f
}

var testDate = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

func (f *schedulerFixture) mustCreate(t *testing.T, routeType domain.RouteType, truckID, userID string) *domain.Route {
	t.Helper()
	route, err := f.scheduler.CreateRoute(context.Background(), CreateRouteRequest{
		Date: testDate, Type: routeType, TruckID: truckID, UserID: userID,
	})
	require.NoError(t, err)
	return route
}

func (f *schedulerFixture) mustPlan(t *testing.T, routeType domain.RouteType, truckID, userID, productID string, qty int) (*domain.Route, *domain.DestinationProduct) {
	t.Helper()
	ctx := context.Background()
	route := f.mustCreate(t, routeType, truckID, userID)
	dest, err := f.scheduler.AddDestination(ctx, route.ID, "12 Main St", routeType)
	require.NoError(t, err)
	product, err := f.scheduler.AddProduct(ctx, dest.ID, productID, qty)
	require.NoError(t, err)
	return route, product
}

func TestCreateRouteRejectsDoubleBooking(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")

	_, err := f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: domain.RouteDistribute, TruckID: "truck-1", UserID: "user-2",
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: domain.RouteCollect, TruckID: "truck-2", UserID: "user-1",
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	// Another day frees both the truck and the driver.
	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate.AddDate(0, 0, 1), Type: domain.RouteDistribute, TruckID: "truck-1", UserID: "user-1",
	})
	require.NoError(t, err)
}

func TestCreateRouteValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	_, err := f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: "express", TruckID: "truck-1", UserID: "user-1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: domain.RouteCollect, TruckID: "", UserID: "user-1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: domain.RouteCollect, TruckID: "ghost-truck", UserID: "user-1",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRouteEligibility(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	_, err := f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate, Type: domain.RouteDistribute, TruckID: "truck-1", UserID: "user-1",
		RequiredSkillID: "forklift",
	})
	require.NoError(t, err)

	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate.AddDate(0, 0, 1), Type: domain.RouteDistribute, TruckID: "truck-1", UserID: "user-2",
		RequiredSkillID: "forklift",
	})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	// A skill-service outage is not a verdict on eligibility.
	f.skills.Err = domain.ErrUnavailable
	_, err = f.scheduler.CreateRoute(ctx, CreateRouteRequest{
		Date: testDate.AddDate(0, 0, 2), Type: domain.RouteDistribute, TruckID: "truck-1", UserID: "user-1",
		RequiredSkillID: "forklift",
	})
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestAddDestinationTypeMustMatchRoute(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	route := f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")

	_, err := f.scheduler.AddDestination(ctx, route.ID, "3 Depot Rd", domain.RouteCollect)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)

	_, err = f.scheduler.AddDestination(ctx, route.ID, "3 Depot Rd", domain.RouteDistribute)
	require.NoError(t, err)
}

func TestAddProductEnforcesCapacity(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 100})

	route := f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")
	dest, err := f.scheduler.AddDestination(ctx, route.ID, "12 Main St", domain.RouteDistribute)
	require.NoError(t, err)

	_, err = f.scheduler.AddProduct(ctx, dest.ID, "rice", 6)
	require.NoError(t, err)

	// Truck capacity is 10: 6 + 5 would overflow.
	_, err = f.scheduler.AddProduct(ctx, dest.ID, "rice", 5)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	var capErr *domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 11, capErr.Proposed)
	require.Equal(t, 10, capErr.Limit)

	reloaded, err := f.scheduler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, 6, reloaded.TotalQuantity())

	// The hold taken before the capacity check was rolled back.
	available, err := f.ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 94, available)
}

func TestAddProductReservesStockForDistribution(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 5})

	route := f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")
	dest, err := f.scheduler.AddDestination(ctx, route.ID, "12 Main St", domain.RouteDistribute)
	require.NoError(t, err)

	_, err = f.scheduler.AddProduct(ctx, dest.ID, "rice", 8)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	reloaded, err := f.scheduler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.TotalQuantity())

	_, err = f.scheduler.AddProduct(ctx, dest.ID, "ghost-product", 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionRoutesDoNotReserveStock(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	route := f.mustCreate(t, domain.RouteCollect, "truck-3", "user-1")
	dest, err := f.scheduler.AddDestination(ctx, route.ID, "7 Farm Lane", domain.RouteCollect)
	require.NoError(t, err)

	// No stock exists for flour anywhere, yet planning a pickup succeeds.
	_, err = f.scheduler.AddProduct(ctx, dest.ID, "flour", 8)
	require.NoError(t, err)
}

func TestRemoveProductReleasesHold(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	route, product := f.mustPlan(t, domain.RouteDistribute, "truck-1", "user-1", "rice", 6)

	available, err := f.ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 14, available)

	require.NoError(t, f.scheduler.RemoveProduct(ctx, product.ID))

	available, err = f.ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 20, available)

	reloaded, err := f.scheduler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.TotalQuantity())
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	route := f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")

	_, err := f.scheduler.Complete(ctx, route.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, f.scheduler.Start(ctx, route.ID))
	require.ErrorIs(t, f.scheduler.Start(ctx, route.ID), domain.ErrInvalidState)

	result, err := f.scheduler.Complete(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RouteCompleted, result.Route.Status)
	require.NotNil(t, result.Route.CompletedAt)

	require.ErrorIs(t, f.scheduler.Cancel(ctx, route.ID), domain.ErrInvalidState)
}

func TestCompleteCommitsDistributionStock(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	route, _ := f.mustPlan(t, domain.RouteDistribute, "truck-1", "user-1", "rice", 6)
	require.NoError(t, f.scheduler.Start(ctx, route.ID))

	result, err := f.scheduler.Complete(ctx, route.ID)
	require.NoError(t, err)
	require.Empty(t, result.ReconciliationErrors)

	entry, err := f.stocks.Get(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 14, entry.OnHand)

	available, err := f.ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 14, available)
}

func TestCancelReleasesEverything(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 20})

	route, _ := f.mustPlan(t, domain.RouteDistribute, "truck-1", "user-1", "rice", 6)

	require.NoError(t, f.scheduler.Cancel(ctx, route.ID))

	reloaded, err := f.scheduler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RouteCancelled, reloaded.Status)
	require.Empty(t, reloaded.Destinations)

	available, err := f.ledger.GetAvailable(ctx, "rice", "A")
	require.NoError(t, err)
	require.Equal(t, 20, available)

	// The cancelled route no longer blocks the truck or the driver.
	f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")
}

func TestReassignTruck(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)
	f.stocks.Seed(&domain.StockEntry{ProductID: "rice", Zone: "A", OnHand: 100})

	route, _ := f.mustPlan(t, domain.RouteDistribute, "truck-1", "user-1", "rice", 6)

	// truck-2 only holds 5 units, the route already carries 6.
	err := f.scheduler.ReassignTruck(ctx, route.ID, "truck-2")
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	other := f.mustCreate(t, domain.RouteCollect, "truck-3", "user-2")
	err = f.scheduler.ReassignTruck(ctx, route.ID, "truck-3")
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.scheduler.Cancel(ctx, other.ID))
	require.NoError(t, f.scheduler.ReassignTruck(ctx, route.ID, "truck-3"))

	reloaded, err := f.scheduler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Equal(t, "truck-3", reloaded.TruckID)
}

func TestLinkScheduleRequiresMatchingDate(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	route := f.mustCreate(t, domain.RouteDistribute, "truck-1", "user-1")

	require.NoError(t, f.schedules.Create(ctx, &domain.Schedule{
		ID: "sched-1", UserID: "user-1", Date: testDate.AddDate(0, 0, 1), Type: domain.RouteDistribute,
	}))
	require.NoError(t, f.schedules.Create(ctx, &domain.Schedule{
		ID: "sched-2", UserID: "user-1", Date: testDate.Add(9 * time.Hour), Type: domain.RouteDistribute,
	}))

	err := f.scheduler.LinkSchedule(ctx, "sched-1", route.ID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	// Same calendar day counts even when the timestamp carries a time of day.
	require.NoError(t, f.scheduler.LinkSchedule(ctx, "sched-2", route.ID))
	require.Len(t, f.schedules.Links(), 1)
}

package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"route-scheduling-service/internal/domain"
	"route-scheduling-service/internal/platform/obs"
	"route-scheduling-service/internal/ports"
)

// DonationReconciler links pledged donations to collection routes and, when
// such a route completes, credits the collected quantities into the stock
// ledger's intake zone.
type DonationReconciler struct {
	donations  ports.DonationRepository
	routes     ports.RouteRepository
	catalog    ports.ProductCatalog
	ledger     *StockLedger
	intakeZone string
	logger     *zap.Logger
}

func NewDonationReconciler(
	donations ports.DonationRepository,
	routes ports.RouteRepository,
	catalog ports.ProductCatalog,
	ledger *StockLedger,
	intakeZone string,
	logger *zap.Logger,
) *DonationReconciler {
	return &DonationReconciler{
		donations:  donations,
		routes:     routes,
		catalog:    catalog,
		ledger:     ledger,
		intakeZone: intakeZone,
		logger:     logger,
	}
}

// ReconciliationError records one donation that could not be credited while
// the rest of the route completion went through.
type ReconciliationError struct {
	DonationID string `json:"donation_id"`
	Reason     string `json:"reason"`
}

// LinkDonation attaches a pending donation to a collection route. The route
// must be of type Collect and not yet terminal; the donation must be
// unlinked and uncollected.
func (r *DonationReconciler) LinkDonation(ctx context.Context, donationID, routeID string) (err error) {
	defer obs.Time(ctx, "reconciler.link")(&err)

	route, err := r.routes.Get(ctx, routeID)
	if err != nil {
		return fmt.Errorf("link donation %s: %w", donationID, err)
	}
	if route.Type != domain.RouteCollect {
		return fmt.Errorf("link donation %s: route %s is %s: %w",
			donationID, routeID, route.Type, domain.ErrTypeMismatch)
	}
	if route.Status.Terminal() {
		return fmt.Errorf("link donation %s: route %s is %s: %w",
			donationID, routeID, route.Status, domain.ErrInvalidState)
	}

	donation, err := r.donations.Get(ctx, donationID)
	if err != nil {
		return fmt.Errorf("link donation %s: %w", donationID, err)
	}
	if donation.Collected {
		return fmt.Errorf("link donation %s: already collected: %w", donationID, domain.ErrInvalidState)
	}
	if donation.Linked() {
		return fmt.Errorf("link donation %s: already linked to route %s: %w",
			donationID, *donation.RouteID, domain.ErrConflict)
	}

	donation.RouteID = &routeID
	if err := r.donations.Update(ctx, donation); err != nil {
		return fmt.Errorf("link donation %s: %w", donationID, err)
	}
	return nil
}

// Unlink detaches every donation from a cancelled route, reverting them to
// pending. Collected donations are left alone.
func (r *DonationReconciler) Unlink(ctx context.Context, routeID string) error {
	linked, err := r.donations.ListByRoute(ctx, routeID)
	if err != nil {
		return fmt.Errorf("unlink donations for route %s: %w", routeID, err)
	}

	for _, donation := range linked {
		if donation.Collected {
			continue
		}
		donation.RouteID = nil
		if err := r.donations.Update(ctx, donation); err != nil {
			return fmt.Errorf("unlink donation %s: %w", donation.ID, err)
		}
	}
	return nil
}

// Reconcile credits every donation linked to the route into the intake zone
// and marks it collected with the route's completion date. Failures are
// per-donation: a bad record is reported and skipped so one donation cannot
// block the whole collection route from completing. The returned error is
// reserved for failures that prevent reconciliation from running at all.
func (r *DonationReconciler) Reconcile(ctx context.Context, routeID string, completedAt time.Time) (_ []ReconciliationError, err error) {
	defer obs.Time(ctx, "reconciler.reconcile")(&err)

	linked, err := r.donations.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("reconcile route %s: %w", routeID, err)
	}

	var failures []ReconciliationError
	fail := func(d *domain.Donation, reason string) {
		r.logger.Warn("donation reconciliation failed",
			zap.String("route_id", routeID),
			zap.String("donation_id", d.ID),
			zap.String("reason", reason))
		failures = append(failures, ReconciliationError{DonationID: d.ID, Reason: reason})
	}

	for _, donation := range linked {
		if donation.Collected {
			continue
		}

		if donation.Quantity <= 0 {
			fail(donation, fmt.Sprintf("non-positive quantity %d", donation.Quantity))
			continue
		}

		exists, err := r.catalog.ProductExists(ctx, donation.ProductID)
		if err != nil {
			fail(donation, fmt.Sprintf("product lookup: %v", err))
			continue
		}
		if !exists {
			fail(donation, fmt.Sprintf("unknown product %s", donation.ProductID))
			continue
		}

		if err := r.ledger.Credit(ctx, donation.ProductID, r.intakeZone, donation.Quantity); err != nil {
			fail(donation, fmt.Sprintf("credit: %v", err))
			continue
		}

		at := completedAt
		donation.Collected = true
		donation.CollectedAt = &at
		if err := r.donations.Update(ctx, donation); err != nil {
			// The credit already landed; report the stale flag rather than
			// trying to claw the stock back.
			fail(donation, fmt.Sprintf("mark collected: %v", err))
		}
	}

	return failures, nil
}

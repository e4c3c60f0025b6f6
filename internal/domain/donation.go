package domain

import "time"

// Donation is a pledged quantity of one product from a donor. It may be
// linked to at most one collection route (non-owning back-reference) and
// stays pending until that route completes, at which point reconciliation
// credits the intake zone and marks it collected. Cancelling the route
// reverts the donation to unlinked/pending.
type Donation struct {
	ID          string
	DonorName   string
	ProductID   string
	Quantity    int
	RouteID     *string
	Collected   bool
	CollectedAt *time.Time
}

// Linked reports whether the donation is attached to a route.
func (d *Donation) Linked() bool { return d.RouteID != nil }

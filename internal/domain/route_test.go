package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRouteLifecycle(t *testing.T) {
	r := &Route{ID: "r1", Type: RouteDistribute, Status: RoutePlanned}

	if err := r.Complete(time.Now()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete from planned: err = %v, want ErrInvalidState", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: unexpected error: %v", err)
	}
	if r.Status != RouteInProgress {
		t.Fatalf("status = %s, want in_progress", r.Status)
	}

	if err := r.Start(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double start: err = %v, want ErrInvalidState", err)
	}

	at := time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC)
	if err := r.Complete(at); err != nil {
		t.Fatalf("complete: unexpected error: %v", err)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(at) {
		t.Fatalf("CompletedAt = %v, want %v", r.CompletedAt, at)
	}

	if err := r.Cancel(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel after complete: err = %v, want ErrInvalidState", err)
	}
}

func TestRouteCancelFromInProgress(t *testing.T) {
	r := &Route{ID: "r1", Type: RouteCollect, Status: RoutePlanned}

	if err := r.Start(); err != nil {
		t.Fatalf("start: unexpected error: %v", err)
	}
	if err := r.Cancel(); err != nil {
		t.Fatalf("cancel: unexpected error: %v", err)
	}
	if r.Active() {
		t.Fatal("cancelled route should not be active")
	}
	if err := r.Cancel(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double cancel: err = %v, want ErrInvalidState", err)
	}
}

func TestRouteAttachTypeMismatch(t *testing.T) {
	r := &Route{ID: "r1", Type: RouteDistribute, Status: RoutePlanned}

	err := r.Attach(&Destination{ID: "d1", Address: "12 Mill Rd", Type: RouteCollect})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("attach: err = %v, want ErrTypeMismatch", err)
	}
	if len(r.Destinations) != 0 {
		t.Fatalf("destinations = %d, want 0", len(r.Destinations))
	}

	if err := r.Attach(&Destination{ID: "d2", Address: "12 Mill Rd", Type: RouteDistribute}); err != nil {
		t.Fatalf("attach matching type: unexpected error: %v", err)
	}
	if r.Destinations[0].RouteID != "r1" {
		t.Fatalf("RouteID = %q, want r1", r.Destinations[0].RouteID)
	}
}

func TestRouteTotalQuantity(t *testing.T) {
	r := &Route{
		ID:   "r1",
		Type: RouteDistribute,
		Destinations: []*Destination{
			{ID: "d1", Products: []*DestinationProduct{
				{ID: "p1", ProductID: "rice", Quantity: 4},
				{ID: "p2", ProductID: "flour", Quantity: 2},
			}},
			{ID: "d2", Products: []*DestinationProduct{
				{ID: "p3", ProductID: "rice", Quantity: 3},
			}},
		},
	}

	if got := r.TotalQuantity(); got != 9 {
		t.Fatalf("TotalQuantity = %d, want 9", got)
	}

	d, p := r.FindProduct("p3")
	if d == nil || d.ID != "d2" || p.Quantity != 3 {
		t.Fatalf("FindProduct(p3) = %v, %v", d, p)
	}
	if d, p := r.FindProduct("missing"); d != nil || p != nil {
		t.Fatal("FindProduct(missing) should return nils")
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, 3, 14, 23, 45, 1, 0, time.FixedZone("X", -3600))
	got := DateOnly(in)
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOnly = %v, want %v", got, want)
	}
}

package domain

// StockEntry is the on-hand quantity for one product in one storage zone.
// Zones are independent; a product may be stocked in several. Entries are
// mutated only through the stock ledger's reserve/commit/release/credit
// protocol, never by direct field writes elsewhere.
type StockEntry struct {
	ProductID string
	Zone      string
	OnHand    int
}

// ReservationState tracks a hold through its lifecycle. A reservation is
// settled exactly once: committed (permanent decrement) or released (hold
// dropped, on-hand untouched).
type ReservationState string

const (
	ReservationHeld      ReservationState = "held"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

// Reservation is a temporary hold on stock quantity, handed back to callers
// as the handle for commit/release. RouteID and DestinationProductID tie the
// hold to the scheduling artifact that took it, so route completion and
// cancellation can settle holds in bulk.
type Reservation struct {
	ID                   string
	ProductID            string
	Zone                 string
	Quantity             int
	RouteID              string
	DestinationProductID string
	State                ReservationState
}

package domain

// Truck is fleet master data supplied by the maintenance collaborator.
// Capacity is a hard upper bound on the unit count a route may carry.
// Condition is an ordinal wear rating owned by fleet maintenance; the
// scheduling core only reads it.
type Truck struct {
	ID           string
	Registration string
	Capacity     int
	Condition    int
}

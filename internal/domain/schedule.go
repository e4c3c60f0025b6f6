package domain

import "time"

// Schedule is a user-visible calendar entry, distinct from the route it may
// be linked to. A user can hold several entries; links to routes go through
// an explicit mapping relation and require matching dates at link time.
type Schedule struct {
	ID     string
	UserID string
	Date   time.Time
	Type   RouteType
}

// ScheduleRoute is the mapping row between a schedule entry and a route.
// It is a derived relation, not an ownership edge.
type ScheduleRoute struct {
	ScheduleID string
	RouteID    string
}

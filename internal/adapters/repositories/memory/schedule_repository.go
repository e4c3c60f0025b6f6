package memory

import (
	"context"
	"fmt"
	"sync"

	"route-scheduling-service/internal/domain"
)

// In-memory implementation of the ScheduleRepository port.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*domain.Schedule
	links     []domain.ScheduleRoute
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{schedules: make(map[string]*domain.Schedule)}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[schedule.ID]; ok {
		return fmt.Errorf("schedule %s already exists", schedule.ID)
	}
	sc := *schedule
	r.schedules[schedule.ID] = &sc
	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, ok := r.schedules[scheduleID]
	if !ok {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, domain.ErrNotFound)
	}
	sc := *schedule
	return &sc, nil
}

func (r *ScheduleRepository) Link(ctx context.Context, scheduleID, routeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.ScheduleID == scheduleID && l.RouteID == routeID {
			return nil
		}
	}
	r.links = append(r.links, domain.ScheduleRoute{ScheduleID: scheduleID, RouteID: routeID})
	return nil
}

func (r *ScheduleRepository) UnlinkByRoute(ctx context.Context, routeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.links[:0]
	for _, l := range r.links {
		if l.RouteID != routeID {
			kept = append(kept, l)
		}
	}
	r.links = kept
	return nil
}

// Links returns a snapshot of the mapping rows. Test assertions only.
func (r *ScheduleRepository) Links() []domain.ScheduleRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScheduleRoute, len(r.links))
	copy(out, r.links)
	return out
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"route-scheduling-service/internal/domain"
)

// In-memory implementation of the DonationRepository port.
type DonationRepository struct {
	mu        sync.RWMutex
	donations map[string]*domain.Donation
}

func NewDonationRepository() *DonationRepository {
	return &DonationRepository{donations: make(map[string]*domain.Donation)}
}

func cloneDonation(d *domain.Donation) *domain.Donation {
	out := *d
	if d.RouteID != nil {
		id := *d.RouteID
		out.RouteID = &id
	}
	if d.CollectedAt != nil {
		at := *d.CollectedAt
		out.CollectedAt = &at
	}
	return &out
}

func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.donations[donation.ID]; ok {
		return fmt.Errorf("donation %s already exists", donation.ID)
	}
	r.donations[donation.ID] = cloneDonation(donation)
	return nil
}

func (r *DonationRepository) Get(ctx context.Context, donationID string) (*domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donation, ok := r.donations[donationID]
	if !ok {
		return nil, fmt.Errorf("donation %s: %w", donationID, domain.ErrNotFound)
	}
	return cloneDonation(donation), nil
}

func (r *DonationRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Donation
	for _, donation := range r.donations {
		if donation.RouteID != nil && *donation.RouteID == routeID {
			out = append(out, cloneDonation(donation))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.donations[donation.ID]; !ok {
		return fmt.Errorf("donation %s: %w", donation.ID, domain.ErrNotFound)
	}
	r.donations[donation.ID] = cloneDonation(donation)
	return nil
}

package ports

import (
	"context"

	"route-scheduling-service/internal/domain"
)

// Port: fleet-maintenance collaborator. The core never stores trucks; it
// asks for them by id on every capacity decision.
type FleetProvider interface {
	// GetTruck returns ErrNotFound for an unknown truck and ErrUnavailable
	// when the collaborator cannot be reached.
	GetTruck(ctx context.Context, truckID string) (*domain.Truck, error)
}

// Port: skill-validation collaborator. Only skills with a validation date
// count; the adapter is responsible for filtering unvalidated ones out.
type SkillProvider interface {
	// GetValidatedSkills returns ErrUnavailable on transient failure, which
	// the eligibility gate surfaces as distinct from a definitive "no".
	GetValidatedSkills(ctx context.Context, userID string) ([]string, error)
}

// Port: product-catalog collaborator, used to validate product references
// before they enter destination products or the stock ledger.
type ProductCatalog interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
}

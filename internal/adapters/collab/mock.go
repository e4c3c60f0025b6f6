package collab

import (
	"context"
	"fmt"

	"route-scheduling-service/internal/domain"
)

// Mock collaborators for tests and offline runs. Err, when set, is returned
// by every call, which is how tests simulate a collaborator outage.

type MockFleetProvider struct {
	Trucks map[string]*domain.Truck
	Err    error
}

func (m *MockFleetProvider) GetTruck(ctx context.Context, truckID string) (*domain.Truck, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	truck, ok := m.Trucks[truckID]
	if !ok {
		return nil, fmt.Errorf("truck %s: %w", truckID, domain.ErrNotFound)
	}
	t := *truck
	return &t, nil
}

type MockSkillProvider struct {
	Validated map[string][]string
	Err       error
}

func (m *MockSkillProvider) GetValidatedSkills(ctx context.Context, userID string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Validated[userID], nil
}

type MockProductCatalog struct {
	Products map[string]bool
	Err      error
}

func (m *MockProductCatalog) ProductExists(ctx context.Context, productID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.Products[productID], nil
}

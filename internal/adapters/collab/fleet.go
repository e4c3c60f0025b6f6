package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"route-scheduling-service/internal/domain"
)

// HTTPFleetProvider implements the FleetProvider port against the
// fleet-maintenance service's REST surface.
type HTTPFleetProvider struct {
	client *client
}

func NewHTTPFleetProvider(baseURL, apiKey string) (*HTTPFleetProvider, error) {
	c, err := newClient(baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("fleet provider: %w", err)
	}
	return &HTTPFleetProvider{client: c}, nil
}

type truckPayload struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	Capacity     int    `json:"capacity"`
	Condition    int    `json:"condition"`
}

func (p *HTTPFleetProvider) GetTruck(ctx context.Context, truckID string) (*domain.Truck, error) {
	resp, err := p.client.get(ctx, "/trucks/"+url.PathEscape(truckID))
	if err != nil {
		return nil, fmt.Errorf("get truck %s: %w", truckID, err)
	}
	defer resp.Body.Close()

	var payload truckPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("get truck %s: decode response: %w", truckID, err)
	}

	return &domain.Truck{
		ID:           payload.ID,
		Registration: payload.Registration,
		Capacity:     payload.Capacity,
		Condition:    payload.Condition,
	}, nil
}

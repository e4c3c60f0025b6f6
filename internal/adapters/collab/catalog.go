package collab

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"route-scheduling-service/internal/domain"
)

// HTTPProductCatalog implements the ProductCatalog port against the product
// service. Existence is the only question this core ever asks it.
type HTTPProductCatalog struct {
	client *client
}

func NewHTTPProductCatalog(baseURL, apiKey string) (*HTTPProductCatalog, error) {
	c, err := newClient(baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("product catalog: %w", err)
	}
	return &HTTPProductCatalog{client: c}, nil
}

func (p *HTTPProductCatalog) ProductExists(ctx context.Context, productID string) (bool, error) {
	resp, err := p.client.get(ctx, "/products/"+url.PathEscape(productID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("product exists %s: %w", productID, err)
	}
	resp.Body.Close()
	return true, nil
}

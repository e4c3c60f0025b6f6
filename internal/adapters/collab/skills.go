package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"route-scheduling-service/internal/domain"
)

// HTTPSkillProvider implements the SkillProvider port against the
// account/skill service. Only skills carrying a validation date count as
// validated; the rest are filtered out here so the eligibility gate never
// sees them.
type HTTPSkillProvider struct {
	client *client
}

func NewHTTPSkillProvider(baseURL, apiKey string) (*HTTPSkillProvider, error) {
	c, err := newClient(baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("skill provider: %w", err)
	}
	return &HTTPSkillProvider{client: c}, nil
}

type skillPayload struct {
	SkillID     string     `json:"skill_id"`
	ValidatedAt *time.Time `json:"validated_at"`
}

func (p *HTTPSkillProvider) GetValidatedSkills(ctx context.Context, userID string) ([]string, error) {
	resp, err := p.client.get(ctx, "/users/"+url.PathEscape(userID)+"/skills")
	if err != nil {
		// An unknown user simply has no validated skills.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("validated skills for %s: %w", userID, err)
	}
	defer resp.Body.Close()

	var payload []skillPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("validated skills for %s: decode response: %w", userID, err)
	}

	out := make([]string, 0, len(payload))
	for _, s := range payload {
		if s.ValidatedAt != nil {
			out = append(out, s.SkillID)
		}
	}
	return out, nil
}

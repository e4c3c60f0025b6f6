package services

import (
	"context"
	"fmt"
	"slices"

	"route-scheduling-service/internal/platform/obs"
	"route-scheduling-service/internal/ports"
)

// EligibilityGate decides whether a volunteer may take a route whose
// category requires a skill. It is a pure predicate over the external
// skill-validation data: no mutation, no caching, no retries of its own.
type EligibilityGate struct {
	skills ports.SkillProvider
}

func NewEligibilityGate(skills ports.SkillProvider) *EligibilityGate {
	return &EligibilityGate{skills: skills}
}

// CanAssign reports whether the user's validated skills include the
// required skill. An empty requirement always passes. A transient failure
// of the skill lookup surfaces as Unavailable, distinct from a definitive
// false: callers must not read a lookup outage as "not eligible".
func (g *EligibilityGate) CanAssign(ctx context.Context, userID, requiredSkillID string) (_ bool, err error) {
	defer obs.Time(ctx, "eligibility.can_assign")(&err)

	if requiredSkillID == "" {
		return true, nil
	}

	validated, err := g.skills.GetValidatedSkills(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("eligibility for user %s: %w", userID, err)
	}

	return slices.Contains(validated, requiredSkillID), nil
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"route-scheduling-service/internal/adapters/collab"
	"route-scheduling-service/internal/domain"
)

func TestCanAssign(t *testing.T) {
	ctx := context.Background()
	gate := NewEligibilityGate(&collab.MockSkillProvider{Validated: map[string][]string{
		"user-1": {"driving-b", "forklift"},
		"user-2": {},
	}})

	ok, err := gate.CanAssign(ctx, "user-1", "forklift")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = gate.CanAssign(ctx, "user-2", "forklift")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = gate.CanAssign(ctx, "unknown-user", "forklift")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = gate.CanAssign(ctx, "user-2", "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanAssignSurfacesLookupOutage(t *testing.T) {
	gate := NewEligibilityGate(&collab.MockSkillProvider{Err: domain.ErrUnavailable})

	ok, err := gate.CanAssign(context.Background(), "user-1", "forklift")
	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.False(t, ok)
}

package authflow_test

import (
	"testing"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/assert"
)

func TestRoleResolverAllowListIsCaseInsensitive(t *testing.T) {
	resolver := authflow.NewRoleResolver([]string{"Admin@Example.com"})

	tests := []struct {
		name     string
		email    string
		expected authflow.UserRole
	}{
		{"exact match", "Admin@Example.com", authflow.RoleAdmin},
		{"lowercase", "admin@example.com", authflow.RoleAdmin},
		{"uppercase", "ADMIN@EXAMPLE.COM", authflow.RoleAdmin},
		{"different account", "someone@example.com", authflow.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role := resolver.Resolve(&authflow.Identity{ID: "u1", Email: tt.email})
			assert.Equal(t, tt.expected, role)
		})
	}
}

func TestRoleResolverNilIdentityIsGuest(t *testing.T) {
	resolver := authflow.NewRoleResolver([]string{"admin@example.com"})
	assert.Equal(t, authflow.RoleGuest, resolver.Resolve(nil))
}

func TestRoleResolverExplicitClaimWins(t *testing.T) {
	resolver := authflow.NewRoleResolver(nil)

	role := resolver.Resolve(&authflow.Identity{
		ID:     "u1",
		Email:  "someone@example.com",
		Claims: map[string]any{"role": "admin"},
	})
	assert.Equal(t, authflow.RoleAdmin, role)
}

func TestRoleResolverInvalidClaimFallsThrough(t *testing.T) {
	resolver := authflow.NewRoleResolver([]string{"boss@example.com"})

	role := resolver.Resolve(&authflow.Identity{
		ID:     "u1",
		Email:  "boss@example.com",
		Claims: map[string]any{"role": "superuser"},
	})
	assert.Equal(t, authflow.RoleAdmin, role)

	role = resolver.Resolve(&authflow.Identity{
		ID:     "u2",
		Email:  "plain@example.com",
		Claims: map[string]any{"role": 42},
	})
	assert.Equal(t, authflow.RoleUser, role)
}

func TestUserRoleIsAtLeast(t *testing.T) {
	assert.True(t, authflow.RoleAdmin.IsAtLeast(authflow.RoleUser))
	assert.True(t, authflow.RoleUser.IsAtLeast(authflow.RoleGuest))
	assert.False(t, authflow.RoleGuest.IsAtLeast(authflow.RoleUser))
	assert.False(t, authflow.UserRole("unknown").IsAtLeast(authflow.RoleGuest))
}

func TestParseRole(t *testing.T) {
	role, ok := authflow.ParseRole("Admin")
	assert.True(t, ok)
	assert.Equal(t, authflow.RoleAdmin, role)

	_, ok = authflow.ParseRole("owner")
	assert.False(t, ok)
}

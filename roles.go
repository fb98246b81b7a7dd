package authflow

import "strings"

// UserRole is a coarse authorization tag derived locally from identity
// attributes, never provider-native.
type UserRole string

const (
	// RoleGuest is the role of the anonymous profile.
	RoleGuest UserRole = "guest"
	// RoleUser is the default role for any authenticated identity.
	RoleUser UserRole = "user"
	// RoleAdmin is granted by allow-list match or explicit claim.
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleGuest: 0,
		RoleUser:  1,
		RoleAdmin: 2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(roleStr))
	return role, role.IsValid()
}

const roleClaim = "role"

// RoleResolver derives a UserRole from an identity: an explicit valid role
// claim wins, otherwise a case-insensitive match against the configured
// administrator allow-list promotes to admin, otherwise user.
type RoleResolver struct {
	admins []string
}

// NewRoleResolver builds a resolver from the administrator email allow-list.
// Entries are trimmed; empties are dropped.
func NewRoleResolver(adminEmails []string) *RoleResolver {
	admins := make([]string, 0, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.TrimSpace(email); email != "" {
			admins = append(admins, email)
		}
	}

	return &RoleResolver{admins: admins}
}

// Resolve computes the role for an identity. A nil identity is a guest.
func (r *RoleResolver) Resolve(identity *Identity) UserRole {
	if identity == nil {
		return RoleGuest
	}

	if identity.Claims != nil {
		if raw, ok := identity.Claims[roleClaim].(string); ok {
			if role, valid := ParseRole(raw); valid && role != RoleGuest {
				return role
			}
		}
	}

	for _, admin := range r.admins {
		if strings.EqualFold(admin, identity.Email) {
			return RoleAdmin
		}
	}

	return RoleUser
}

package types

import "strings"

const (
	// ActorRoleSystemAdmin represents site-wide administrators with unrestricted access.
	ActorRoleSystemAdmin = "system_admin"
	// ActorRoleOrgAdmin represents administrators scoped to a single organization.
	ActorRoleOrgAdmin = "org_admin"
	// ActorRoleMember represents regular organization members.
	ActorRoleMember = "member"
	// ActorRoleSupport represents support agents that should be limited to self/owner scopes.
	ActorRoleSupport = "support"
)

// RoleName normalizes the actor role for comparisons.
func (a ActorRef) RoleName() string {
	return normalizeRole(a.Type)
}

// IsRole reports whether the actor matches the provided role.
func (a ActorRef) IsRole(role string) bool {
	role = normalizeRole(role)
	if role == "" {
		return a.RoleName() == ""
	}
	return a.RoleName() == role
}

// IsSupport reports whether the actor should be treated as a support agent.
func (a ActorRef) IsSupport() bool {
	return a.IsRole(ActorRoleSupport)
}

// IsOrgAdmin reports whether the actor administers an organization.
func (a ActorRef) IsOrgAdmin() bool {
	return a.IsRole(ActorRoleOrgAdmin)
}

// IsSystemAdmin reports whether the actor is a global/system administrator.
func (a ActorRef) IsSystemAdmin() bool {
	return a.IsRole(ActorRoleSystemAdmin)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

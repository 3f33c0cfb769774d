package types

import "strings"

// TenancyMode is the closed set of organization tenancy variants. The mode is
// resolved once at service construction and passed explicitly everywhere;
// business logic never re-reads ambient configuration.
type TenancyMode string

const (
	// TenancyNone means organizations do not exist: everything is scoped to
	// the user alone and organization access checks short-circuit to true.
	TenancyNone TenancyMode = "none"
	// TenancySingle means every user belongs to exactly one organization.
	TenancySingle TenancyMode = "single"
	// TenancyMulti means users can belong to several organizations.
	TenancyMulti TenancyMode = "multi"
)

// ParseTenancyMode maps a configuration value onto a TenancyMode. Matching is
// case-insensitive; invalid or absent values default to TenancySingle.
func ParseTenancyMode(value string) TenancyMode {
	switch TenancyMode(strings.ToLower(strings.TrimSpace(value))) {
	case TenancyNone:
		return TenancyNone
	case TenancySingle:
		return TenancySingle
	case TenancyMulti:
		return TenancyMulti
	default:
		return TenancySingle
	}
}

// UsesOrganizations reports whether the mode carries organization context.
func (m TenancyMode) UsesOrganizations() bool {
	switch m {
	case TenancySingle, TenancyMulti:
		return true
	case TenancyNone:
		return false
	default:
		return true
	}
}

// Valid reports whether the mode is one of the three known variants.
func (m TenancyMode) Valid() bool {
	switch m {
	case TenancyNone, TenancySingle, TenancyMulti:
		return true
	default:
		return false
	}
}

// DefaultVisibility returns the profile visibility default for the mode:
// public when organizations do not exist, organization-scoped otherwise.
func (m TenancyMode) DefaultVisibility() Visibility {
	if m == TenancyNone {
		return VisibilityPublic
	}
	return VisibilityOrganization
}

package types

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// PolicyAction enumerates the supported authorization actions enforced by the
// scope guard. Host applications can remap these actions to their own
// policies or ACL systems.
type PolicyAction string

const (
	PolicyActionProfilesRead     PolicyAction = "profiles:read"
	PolicyActionProfilesWrite    PolicyAction = "profiles:write"
	PolicyActionPreferencesRead  PolicyAction = "preferences:read"
	PolicyActionPreferencesWrite PolicyAction = "preferences:write"
	PolicyActionAvatarsRead      PolicyAction = "avatars:read"
	PolicyActionAvatarsWrite     PolicyAction = "avatars:write"
	PolicyActionSessionsRead     PolicyAction = "sessions:read"
	PolicyActionSessionsWrite    PolicyAction = "sessions:write"
	PolicyActionActivityRead     PolicyAction = "activity:read"
	PolicyActionActivityWrite    PolicyAction = "activity:write"
	PolicyActionExportRead       PolicyAction = "export:read"
	PolicyActionAccountDelete    PolicyAction = "account:delete"
)

// PolicyCheck captures the authorization context for a single command/query.
type PolicyCheck struct {
	Actor    ActorRef
	Scope    ScopeFilter
	Action   PolicyAction
	TargetID uuid.UUID
}

// ScopeResolver resolves requested scopes into canonical organization values
// based on the actor and host application rules.
type ScopeResolver interface {
	ResolveScope(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error)
}

// ScopeResolverFunc adapts bare functions to ScopeResolver.
type ScopeResolverFunc func(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error)

// ResolveScope implements ScopeResolver.
func (f ScopeResolverFunc) ResolveScope(ctx context.Context, actor ActorRef, requested ScopeFilter) (ScopeFilter, error) {
	return f(ctx, actor, requested)
}

// AuthorizationPolicy governs whether an actor can access the requested scope
// for the supplied action.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, check PolicyCheck) error
}

// AuthorizationPolicyFunc adapts bare functions to AuthorizationPolicy.
type AuthorizationPolicyFunc func(ctx context.Context, check PolicyCheck) error

// Authorize implements AuthorizationPolicy.
func (f AuthorizationPolicyFunc) Authorize(ctx context.Context, check PolicyCheck) error {
	return f(ctx, check)
}

// ErrUnauthorizedScope indicates the actor cannot operate on the requested scope.
var ErrUnauthorizedScope = errors.New("go-accounts: unauthorized scope")

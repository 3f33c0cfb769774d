package query

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/preferences"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PreferenceQueryInput scopes effective preference resolution.
type PreferenceQueryInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// PreferenceQuery resolves effective settings via the injected resolver:
// system defaults, then organization context, then the user's stored row.
type PreferenceQuery struct {
	resolver preferenceResolver
	guard    scope.Guard
}

type preferenceResolver interface {
	Resolve(ctx context.Context, input preferences.ResolveInput) (preferences.Snapshot, error)
}

// NewPreferenceQuery constructs the query helper.
func NewPreferenceQuery(resolver preferenceResolver, guard scope.Guard) *PreferenceQuery {
	return &PreferenceQuery{
		resolver: resolver,
		guard:    safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[PreferenceQueryInput, preferences.Snapshot] = (*PreferenceQuery)(nil)

// Query resolves preferences for the provided scope.
func (q *PreferenceQuery) Query(ctx context.Context, input PreferenceQueryInput) (preferences.Snapshot, error) {
	if q.resolver == nil {
		return preferences.Snapshot{}, types.ErrMissingPreferenceRepository
	}
	if input.UserID == uuid.Nil {
		return preferences.Snapshot{}, types.ErrUserIDRequired
	}
	scope, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPreferencesRead, input.UserID)
	if err != nil {
		return preferences.Snapshot{}, err
	}
	return q.resolver.Resolve(ctx, preferences.ResolveInput{
		UserID: input.UserID,
		Scope:  scope,
	})
}

package query

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

const (
	defaultInventoryLimit = 50
	maxInventoryLimit     = 200
)

// ProfileInventoryInput wraps the listing filter with the requesting actor.
type ProfileInventoryInput struct {
	Filter types.ProfileFilter
	Actor  types.ActorRef
}

// ProfileInventoryQuery backs the admin profile listing: keyword search plus
// offset pagination over the org scoped profile table.
type ProfileInventoryQuery struct {
	repo   types.ProfileRepository
	logger types.Logger
	guard  scope.Guard
}

// NewProfileInventoryQuery constructs the inventory helper.
func NewProfileInventoryQuery(repo types.ProfileRepository, logger types.Logger, guard scope.Guard) *ProfileInventoryQuery {
	return &ProfileInventoryQuery{
		repo:   repo,
		logger: logger,
		guard:  safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ProfileInventoryInput, types.ProfilePage] = (*ProfileInventoryQuery)(nil)

// Query delegates to the repository after normalizing pagination.
func (q *ProfileInventoryQuery) Query(ctx context.Context, input ProfileInventoryInput) (types.ProfilePage, error) {
	if q.repo == nil {
		return types.ProfilePage{}, types.ErrMissingProfileRepository
	}
	scope, err := q.guard.Enforce(ctx, input.Actor, input.Filter.Scope, types.PolicyActionProfilesRead, uuid.Nil)
	if err != nil {
		return types.ProfilePage{}, err
	}
	filter := input.Filter
	filter.Scope = scope
	filter.Pagination = normalizeInventoryPagination(filter.Pagination)
	return q.repo.ListProfiles(ctx, filter)
}

func normalizeInventoryPagination(p types.Pagination) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = defaultInventoryLimit
	}
	if p.Limit > maxInventoryLimit {
		p.Limit = maxInventoryLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

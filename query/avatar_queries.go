package query

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// AvatarHistoryInput scopes the avatar upload history view.
type AvatarHistoryInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// AvatarHistoryQuery lists a user's uploaded avatars, newest first.
type AvatarHistoryQuery struct {
	repo  types.AvatarRepository
	guard scope.Guard
}

// NewAvatarHistoryQuery constructs the avatar history helper.
func NewAvatarHistoryQuery(repo types.AvatarRepository, guard scope.Guard) *AvatarHistoryQuery {
	return &AvatarHistoryQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[AvatarHistoryInput, []types.Avatar] = (*AvatarHistoryQuery)(nil)

// Query returns the avatar history for the user.
func (q *AvatarHistoryQuery) Query(ctx context.Context, input AvatarHistoryInput) ([]types.Avatar, error) {
	if q.repo == nil {
		return nil, types.ErrMissingAvatarRepository
	}
	if input.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if _, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionAvatarsRead, input.UserID); err != nil {
		return nil, err
	}
	return q.repo.ListAvatars(ctx, input.UserID)
}

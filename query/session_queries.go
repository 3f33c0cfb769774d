package query

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// SessionListInput scopes the active session dashboard.
type SessionListInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// SessionListQuery lists the user's sessions, active first.
type SessionListQuery struct {
	repo  types.SessionRepository
	guard scope.Guard
}

// NewSessionListQuery constructs the session list helper.
func NewSessionListQuery(repo types.SessionRepository, guard scope.Guard) *SessionListQuery {
	return &SessionListQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[SessionListInput, []types.Session] = (*SessionListQuery)(nil)

// Query returns all sessions for the user.
func (q *SessionListQuery) Query(ctx context.Context, input SessionListInput) ([]types.Session, error) {
	if q.repo == nil {
		return nil, types.ErrMissingSessionRepository
	}
	if input.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if _, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionSessionsRead, input.UserID); err != nil {
		return nil, err
	}
	return q.repo.ListSessions(ctx, input.UserID)
}

// DeviceSummaryQuery aggregates unrevoked sessions per device type for the
// security dashboard widgets.
type DeviceSummaryQuery struct {
	repo  types.SessionRepository
	guard scope.Guard
}

// NewDeviceSummaryQuery constructs the device summary helper.
func NewDeviceSummaryQuery(repo types.SessionRepository, guard scope.Guard) *DeviceSummaryQuery {
	return &DeviceSummaryQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[SessionListInput, []types.DeviceSummary] = (*DeviceSummaryQuery)(nil)

// Query returns per-device session counts.
func (q *DeviceSummaryQuery) Query(ctx context.Context, input SessionListInput) ([]types.DeviceSummary, error) {
	if q.repo == nil {
		return nil, types.ErrMissingSessionRepository
	}
	if input.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if _, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionSessionsRead, input.UserID); err != nil {
		return nil, err
	}
	return q.repo.DeviceSummary(ctx, input.UserID)
}

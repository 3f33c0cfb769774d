package query

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-masker"
	"github.com/google/uuid"
)

// ActivityFeedInput wraps the repository filter with the requesting actor.
type ActivityFeedInput struct {
	Filter types.ActivityFilter
	Actor  types.ActorRef
}

// ActivityFeedQuery renders paginated activity feeds for dashboards. Record
// data payloads are masked before they leave the query.
type ActivityFeedQuery struct {
	repo   types.ActivityRepository
	masker *masker.Masker
	guard  scope.Guard
}

// NewActivityFeedQuery constructs the feed query helper.
func NewActivityFeedQuery(repo types.ActivityRepository, guard scope.Guard) *ActivityFeedQuery {
	return &ActivityFeedQuery{
		repo:   repo,
		masker: activity.DefaultMasker(),
		guard:  safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ActivityFeedInput, types.ActivityPage] = (*ActivityFeedQuery)(nil)

// Query fetches a page of activity records via the injected repository.
func (q *ActivityFeedQuery) Query(ctx context.Context, input ActivityFeedInput) (types.ActivityPage, error) {
	if q.repo == nil {
		return types.ActivityPage{}, types.ErrMissingActivityRepository
	}
	scope, err := q.guard.Enforce(ctx, input.Actor, input.Filter.Scope, types.PolicyActionActivityRead, input.Filter.UserID)
	if err != nil {
		return types.ActivityPage{}, err
	}
	filter := input.Filter
	filter.Scope = scope
	page, err := q.repo.ListActivity(ctx, filter)
	if err != nil {
		return types.ActivityPage{}, err
	}
	page.Records = activity.SanitizeRecords(q.masker, page.Records)
	return page, nil
}

// SecurityEventsInput scopes the security event view.
type SecurityEventsInput struct {
	UserID     uuid.UUID
	Scope      types.ScopeFilter
	Pagination types.Pagination
	Actor      types.ActorRef
}

// SecurityEventsQuery is the filtered activity view limited to the security
// sensitive action allow-list (logins, revocations, exports, deletions).
type SecurityEventsQuery struct {
	repo   types.ActivityRepository
	masker *masker.Masker
	guard  scope.Guard
}

// NewSecurityEventsQuery constructs the security view helper.
func NewSecurityEventsQuery(repo types.ActivityRepository, guard scope.Guard) *SecurityEventsQuery {
	return &SecurityEventsQuery{
		repo:   repo,
		masker: activity.DefaultMasker(),
		guard:  safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[SecurityEventsInput, types.ActivityPage] = (*SecurityEventsQuery)(nil)

// Query lists only allow-listed security actions; caller supplied action
// filters cannot widen the view.
func (q *SecurityEventsQuery) Query(ctx context.Context, input SecurityEventsInput) (types.ActivityPage, error) {
	if q.repo == nil {
		return types.ActivityPage{}, types.ErrMissingActivityRepository
	}
	if input.UserID == uuid.Nil {
		return types.ActivityPage{}, types.ErrUserIDRequired
	}
	scope, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionActivityRead, input.UserID)
	if err != nil {
		return types.ActivityPage{}, err
	}
	page, err := q.repo.ListActivity(ctx, types.ActivityFilter{
		UserID:     input.UserID,
		Scope:      scope,
		Actions:    activity.SecurityActions(),
		Pagination: input.Pagination,
	})
	if err != nil {
		return types.ActivityPage{}, err
	}
	page.Records = activity.SanitizeRecords(q.masker, page.Records)
	return page, nil
}

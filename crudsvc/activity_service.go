package crudsvc

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/crudguard"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/query"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ActivityServiceConfig wires dependencies for the CRUD-backed activity service.
type ActivityServiceConfig struct {
	Guard      GuardAdapter
	LogCommand gocommand.Commander[command.ActivityLogInput]
	FeedQuery  gocommand.Querier[query.ActivityFeedInput, types.ActivityPage]
}

// ActivityService adapts the activity command/query layer to a go-crud
// controller. The log is append-only: update and delete verbs stay disabled.
type ActivityService struct {
	guard   GuardAdapter
	logCmd  gocommand.Commander[command.ActivityLogInput]
	feed    gocommand.Querier[query.ActivityFeedInput, types.ActivityPage]
	emitter ActivityEmitter
	logger  types.Logger
}

// NewActivityService constructs the adapter.
func NewActivityService(cfg ActivityServiceConfig, opts ...ServiceOption) *ActivityService {
	options := applyOptions(opts)
	return &ActivityService{
		guard:   cfg.Guard,
		logCmd:  cfg.LogCommand,
		feed:    cfg.FeedQuery,
		emitter: options.emitter,
		logger:  options.logger,
	}
}

func (s *ActivityService) Create(ctx crud.Context, record *activity.LogEntry) (*activity.LogEntry, error) {
	if s.logCmd == nil {
		return nil, goerrors.New("activity logging disabled", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	payload := activity.ToActivityRecord(record)
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpCreate,
		Scope:     types.ScopeFilter{OrgID: payload.OrgID},
		TargetID:  payload.UserID,
	})
	if err != nil {
		return nil, err
	}
	if err := enforceActivityOwnership(res.Actor, payload.UserID); err != nil {
		return nil, err
	}

	payload.ActorID = res.Actor.ID
	payload.OrgID = res.Scope.OrgID

	input := command.ActivityLogInput{Record: payload}
	if err := s.logCmd.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	s.emit(ctx.UserContext(), payload)
	return activity.FromActivityRecord(payload), nil
}

func (s *ActivityService) CreateBatch(ctx crud.Context, records []*activity.LogEntry) ([]*activity.LogEntry, error) {
	created := make([]*activity.LogEntry, 0, len(records))
	for _, record := range records {
		rec, err := s.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		created = append(created, rec)
	}
	return created, nil
}

func (s *ActivityService) Update(crud.Context, *activity.LogEntry) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdate)
}

func (s *ActivityService) UpdateBatch(crud.Context, []*activity.LogEntry) ([]*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *ActivityService) Delete(crud.Context, *activity.LogEntry) error {
	return notSupported(crud.OpDelete)
}

func (s *ActivityService) DeleteBatch(crud.Context, []*activity.LogEntry) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *ActivityService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*activity.LogEntry, int, error) {
	if s.feed == nil {
		return nil, 0, goerrors.New("activity feed query unavailable", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}

	filter := types.ActivityFilter{
		Scope:    res.Scope,
		UserID:   queryUUID(ctx, "user_id"),
		Actions:  queryStringSlice(ctx, "action"),
		Statuses: parseActivityStatuses(ctx, "status"),
		Since:    queryTime(ctx, "since"),
		Until:    queryTime(ctx, "until"),
		Keyword:  ctx.Query("q"),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", 50),
			Offset: queryInt(ctx, "offset", 0),
		},
	}
	if res.Actor.IsSupport() {
		filter.UserID = res.Actor.ID
	}
	page, err := s.feed.Query(ctx.UserContext(), query.ActivityFeedInput{
		Filter: filter,
		Actor:  res.Actor,
	})
	if err != nil {
		return nil, 0, err
	}
	entries := make([]*activity.LogEntry, 0, len(page.Records))
	for _, record := range page.Records {
		entries = append(entries, activity.FromActivityRecord(record))
	}
	return entries, page.Total, nil
}

func (s *ActivityService) Show(crud.Context, string, []repository.SelectCriteria) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpRead)
}

func (s *ActivityService) emit(ctx context.Context, record types.ActivityRecord) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, record); err != nil && s.logger != nil {
		s.logger.Error("activity emitter failed", err)
	}
}

func enforceActivityOwnership(actor types.ActorRef, target uuid.UUID) error {
	if !actor.IsSupport() || target == uuid.Nil || target == actor.ID {
		return nil
	}
	return goerrors.New("go-accounts: support actors can only log their own activity", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden)
}

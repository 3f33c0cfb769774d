package crudsvc

import (
	"github.com/goliatone/go-accounts/crudguard"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/query"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ProfileServiceConfig wires dependencies for the admin profile controller.
type ProfileServiceConfig struct {
	Guard     GuardAdapter
	Inventory gocommand.Querier[query.ProfileInventoryInput, types.ProfilePage]
	Repo      types.ProfileRepository
}

// ProfileService adapts the profile inventory query and repository to a
// go-crud controller so admin panels can list, inspect, and patch profiles
// without bypassing guards.
type ProfileService struct {
	guard     GuardAdapter
	inventory gocommand.Querier[query.ProfileInventoryInput, types.ProfilePage]
	repo      types.ProfileRepository
	emitter   ActivityEmitter
	logger    types.Logger
}

// NewProfileService constructs the adapter.
func NewProfileService(cfg ProfileServiceConfig, opts ...ServiceOption) *ProfileService {
	options := applyOptions(opts)
	return &ProfileService{
		guard:     cfg.Guard,
		inventory: cfg.Inventory,
		repo:      cfg.Repo,
		emitter:   options.emitter,
		logger:    options.logger,
	}
}

func (s *ProfileService) Create(ctx crud.Context, profile *types.Profile) (*types.Profile, error) {
	return s.upsert(ctx, crud.OpCreate, profile)
}

func (s *ProfileService) CreateBatch(crud.Context, []*types.Profile) ([]*types.Profile, error) {
	return nil, notSupported(crud.OpCreateBatch)
}

func (s *ProfileService) Update(ctx crud.Context, profile *types.Profile) (*types.Profile, error) {
	return s.upsert(ctx, crud.OpUpdate, profile)
}

func (s *ProfileService) UpdateBatch(crud.Context, []*types.Profile) ([]*types.Profile, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *ProfileService) Delete(ctx crud.Context, profile *types.Profile) error {
	if s.repo == nil {
		return goerrors.New("profile repository missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if profile == nil || profile.UserID == uuid.Nil {
		return goerrors.New("profile user id required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpDelete,
		TargetID:  profile.UserID,
	})
	if err != nil {
		return err
	}
	if err := enforceProfileRowAccess(res.Actor, profile.UserID); err != nil {
		return err
	}
	return s.repo.DeleteProfile(ctx.UserContext(), profile.UserID)
}

func (s *ProfileService) DeleteBatch(crud.Context, []*types.Profile) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *ProfileService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*types.Profile, int, error) {
	if s.inventory == nil {
		return nil, 0, goerrors.New("profile inventory query missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}
	filter := types.ProfileFilter{
		Scope:      res.Scope,
		Keyword:    ctx.Query("q"),
		UserIDs:    queryUUIDSlice(ctx, "user_ids"),
		Pagination: types.Pagination{Limit: queryInt(ctx, "limit", 50), Offset: queryInt(ctx, "offset", 0)},
	}
	applyProfileRowPolicy(&filter, res.Actor)
	page, err := s.inventory.Query(ctx.UserContext(), query.ProfileInventoryInput{
		Filter: filter,
		Actor:  res.Actor,
	})
	if err != nil {
		return nil, 0, err
	}
	profiles := filterProfileResults(page.Profiles, res.Actor)
	records := make([]*types.Profile, 0, len(profiles))
	for i := range profiles {
		record := profiles[i]
		records = append(records, applyProfileFieldPolicy(&record, res.Actor))
	}
	return records, len(profiles), nil
}

func (s *ProfileService) Show(ctx crud.Context, id string, _ []repository.SelectCriteria) (*types.Profile, error) {
	if s.repo == nil {
		return nil, goerrors.New("profile repository missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, goerrors.New("invalid profile id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		TargetID:  userID,
	})
	if err != nil {
		return nil, err
	}
	if err := enforceProfileRowAccess(res.Actor, userID); err != nil {
		return nil, err
	}
	profile, err := s.repo.GetProfile(ctx.UserContext(), userID, res.Scope)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, goerrors.New("profile not found", goerrors.CategoryNotFound).WithCode(goerrors.CodeNotFound)
	}
	return applyProfileFieldPolicy(profile, res.Actor), nil
}

func (s *ProfileService) upsert(ctx crud.Context, op crud.CrudOperation, profile *types.Profile) (*types.Profile, error) {
	if s.repo == nil {
		return nil, goerrors.New("profile repository missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if profile == nil || profile.UserID == uuid.Nil {
		return nil, goerrors.New("profile user id required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: op,
		TargetID:  profile.UserID,
	})
	if err != nil {
		return nil, err
	}
	if err := enforceProfileRowAccess(res.Actor, profile.UserID); err != nil {
		return nil, err
	}
	row := *profile
	row.Scope = res.Scope
	if row.CreatedBy == uuid.Nil {
		row.CreatedBy = res.Actor.ID
	}
	row.UpdatedBy = res.Actor.ID
	return s.repo.UpsertProfile(ctx.UserContext(), row)
}

func applyProfileRowPolicy(filter *types.ProfileFilter, actor types.ActorRef) {
	if filter == nil {
		return
	}
	if actor.IsSupport() {
		filter.UserIDs = []uuid.UUID{actor.ID}
	}
}

func filterProfileResults(profiles []types.Profile, actor types.ActorRef) []types.Profile {
	if !actor.IsSupport() {
		return profiles
	}
	filtered := make([]types.Profile, 0, 1)
	for _, profile := range profiles {
		if profile.UserID == actor.ID {
			filtered = append(filtered, profile)
		}
	}
	return filtered
}

// applyProfileFieldPolicy strips contact details from rows support agents view
// on behalf of other users.
func applyProfileFieldPolicy(profile *types.Profile, actor types.ActorRef) *types.Profile {
	if profile == nil {
		return nil
	}
	if !actor.IsSupport() || profile.UserID == actor.ID {
		return profile
	}
	clone := *profile
	clone.Phone = ""
	clone.Website = ""
	clone.Location = ""
	clone.Bio = ""
	return &clone
}

func enforceProfileRowAccess(actor types.ActorRef, target uuid.UUID) error {
	if !actor.IsSupport() || target == actor.ID {
		return nil
	}
	return goerrors.New("go-accounts: support actors can only access their own profile", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden)
}

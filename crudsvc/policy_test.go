package crudsvc

import (
	"context"
	"testing"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/crudguard"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/query"
	"github.com/goliatone/go-crud"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestProfileServiceSupportIndexFilters(t *testing.T) {
	actorID := uuid.New()
	inventory := &stubProfileInventoryQuery{
		result: types.ProfilePage{
			Profiles: []types.Profile{
				{UserID: actorID, DisplayName: "owner"},
				{UserID: uuid.New(), DisplayName: "other"},
			},
			Total: 2,
		},
	}
	svc := NewProfileService(ProfileServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleSupport},
				Scope: types.ScopeFilter{OrgID: uuid.New()},
			},
		},
		Inventory: inventory,
	})

	ctx := newTestCrudContext(context.Background())
	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []uuid.UUID{actorID}, inventory.lastInput.Filter.UserIDs)
	require.Len(t, records, 1)
	require.Equal(t, actorID, records[0].UserID)
}

func TestProfileServiceSupportShowDenied(t *testing.T) {
	actorID := uuid.New()
	targetID := uuid.New()
	svc := NewProfileService(ProfileServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleSupport},
			},
		},
		Repo: &stubProfileRepo{
			rows: map[uuid.UUID]*types.Profile{
				targetID: {UserID: targetID, DisplayName: "target"},
			},
		},
	})
	ctx := newTestCrudContext(context.Background())
	_, err := svc.Show(ctx, targetID.String(), nil)
	require.Error(t, err)
}

func TestProfileServiceUpsertStampsAuditFields(t *testing.T) {
	actorID := uuid.New()
	orgID := uuid.New()
	userID := uuid.New()
	repo := &stubProfileRepo{rows: map[uuid.UUID]*types.Profile{}}
	svc := NewProfileService(ProfileServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleOrgAdmin},
				Scope: types.ScopeFilter{OrgID: orgID},
			},
		},
		Repo: repo,
	})
	ctx := newTestCrudContext(context.Background())
	created, err := svc.Create(ctx, &types.Profile{UserID: userID, DisplayName: "New Member"})
	require.NoError(t, err)
	require.Equal(t, actorID, created.CreatedBy)
	require.Equal(t, actorID, created.UpdatedBy)
	require.Equal(t, orgID, created.Scope.OrgID)
}

func TestProfileFieldPolicyMasksContactDetails(t *testing.T) {
	support := types.ActorRef{ID: uuid.New(), Type: types.ActorRoleSupport}
	profile := &types.Profile{
		UserID: uuid.New(),
		Phone:  "+1 555 0100",
		Bio:    "private notes",
	}
	masked := applyProfileFieldPolicy(profile, support)
	require.Empty(t, masked.Phone)
	require.Empty(t, masked.Bio)

	self := &types.Profile{UserID: support.ID, Phone: "+1 555 0100"}
	require.Equal(t, "+1 555 0100", applyProfileFieldPolicy(self, support).Phone)
}

func TestActivityServiceSupportCreateDenied(t *testing.T) {
	actorID := uuid.New()
	logCmd := &stubActivityLogCmd{}
	svc := NewActivityService(ActivityServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleSupport},
			},
		},
		LogCommand: logCmd,
	})
	ctx := newTestCrudContext(context.Background())
	_, err := svc.Create(ctx, &activity.LogEntry{UserID: uuid.New(), Action: "note.added"})
	require.Error(t, err)
	require.False(t, logCmd.called)
}

func TestActivityServiceSupportIndexForcesOwnRecords(t *testing.T) {
	actorID := uuid.New()
	feed := &stubActivityFeedQuery{
		result: types.ActivityPage{
			Records: []types.ActivityRecord{
				{ID: uuid.New(), UserID: actorID, Action: "profile.updated"},
			},
			Total: 1,
		},
	}
	svc := NewActivityService(ActivityServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleSupport},
			},
		},
		FeedQuery: feed,
	})
	ctx := newTestCrudContext(context.Background())
	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, actorID, feed.lastInput.Filter.UserID)
}

// ----- test stubs -----

type stubGuardAdapter struct {
	result    crudguard.GuardResult
	err       error
	lastInput crudguard.GuardInput
}

func (s *stubGuardAdapter) Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error) {
	s.lastInput = in
	if s.err != nil {
		return crudguard.GuardResult{}, s.err
	}
	return s.result, nil
}

type stubProfileInventoryQuery struct {
	result    types.ProfilePage
	lastInput query.ProfileInventoryInput
}

func (s *stubProfileInventoryQuery) Query(_ context.Context, input query.ProfileInventoryInput) (types.ProfilePage, error) {
	s.lastInput = input
	return s.result, nil
}

type stubProfileRepo struct {
	rows map[uuid.UUID]*types.Profile
}

func (s *stubProfileRepo) GetProfile(_ context.Context, userID uuid.UUID, _ types.ScopeFilter) (*types.Profile, error) {
	if profile, ok := s.rows[userID]; ok {
		clone := *profile
		return &clone, nil
	}
	return nil, types.ErrProfileNotFound
}

func (s *stubProfileRepo) UpsertProfile(_ context.Context, profile types.Profile) (*types.Profile, error) {
	clone := profile
	s.rows[profile.UserID] = &clone
	return &clone, nil
}

func (s *stubProfileRepo) DeleteProfile(_ context.Context, userID uuid.UUID) error {
	delete(s.rows, userID)
	return nil
}

func (s *stubProfileRepo) SetAvatarURL(context.Context, uuid.UUID, string) error {
	return nil
}

func (s *stubProfileRepo) ListProfiles(context.Context, types.ProfileFilter) (types.ProfilePage, error) {
	return types.ProfilePage{}, nil
}

type stubActivityLogCmd struct {
	called bool
	err    error
}

func (s *stubActivityLogCmd) Execute(_ context.Context, _ command.ActivityLogInput) error {
	s.called = true
	return s.err
}

type stubActivityFeedQuery struct {
	result    types.ActivityPage
	lastInput query.ActivityFeedInput
}

func (s *stubActivityFeedQuery) Query(_ context.Context, input query.ActivityFeedInput) (types.ActivityPage, error) {
	s.lastInput = input
	return s.result, nil
}

type testCrudContext struct {
	ctx     context.Context
	queries map[string]string
}

func newTestCrudContext(ctx context.Context) *testCrudContext {
	return &testCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
	}
}

func (t *testCrudContext) UserContext() context.Context {
	return t.ctx
}

func (t *testCrudContext) Params(string, ...string) string {
	return ""
}

func (t *testCrudContext) BodyParser(out any) error {
	return nil
}

func (t *testCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := t.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (t *testCrudContext) QueryValues(key string) []string {
	if v, ok := t.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (t *testCrudContext) QueryInt(string, ...int) int {
	return 0
}

func (t *testCrudContext) Queries() map[string]string {
	return t.queries
}

func (t *testCrudContext) Body() []byte {
	return nil
}

func (t *testCrudContext) Status(int) crud.Response {
	return t
}

func (t *testCrudContext) JSON(any, ...string) error {
	return nil
}

func (t *testCrudContext) SendStatus(int) error {
	return nil
}

package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestProfileUpdateCommand_CreatesAndPatches(t *testing.T) {
	userID := uuid.New()
	repo := newFakeProfileRepo()
	sink := &recordingActivitySink{}

	var event types.ProfileEvent
	hooks := types.Hooks{
		AfterProfileChange: func(_ context.Context, e types.ProfileEvent) {
			event = e
		},
	}

	cmd := NewProfileUpdateCommand(ProfileCommandConfig{
		Repository: repo,
		Hooks:      hooks,
		Activity:   sink,
	})

	result := &types.Profile{}
	actor := types.ActorRef{ID: userID}
	err := cmd.Execute(context.Background(), ProfileUpdateInput{
		UserID: userID,
		Patch: types.ProfilePatch{
			DisplayName: strPtr("Grace Hopper"),
			Timezone:    strPtr("America/New_York"),
		},
		Actor:  actor,
		Result: result,
	})

	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", result.DisplayName)
	require.Equal(t, "America/New_York", result.Timezone)
	require.Equal(t, userID, result.CreatedBy)

	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionProfileUpdated, sink.records[0].Action)
	require.ElementsMatch(t, []string{"display_name", "timezone"}, event.ChangedFields)
}

func TestProfileUpdateCommand_EmptyPatch(t *testing.T) {
	cmd := NewProfileUpdateCommand(ProfileCommandConfig{Repository: newFakeProfileRepo()})

	err := cmd.Execute(context.Background(), ProfileUpdateInput{
		UserID: uuid.New(),
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, ErrEmptyPatch)
}

func TestProfileUpdateCommand_PolicyDenied(t *testing.T) {
	repo := newFakeProfileRepo()
	denied := errors.New("nope")
	guard := scope.NewGuard(nil, types.AuthorizationPolicyFunc(func(context.Context, types.PolicyCheck) error {
		return denied
	}))

	cmd := NewProfileUpdateCommand(ProfileCommandConfig{
		Repository: repo,
		ScopeGuard: guard,
	})

	err := cmd.Execute(context.Background(), ProfileUpdateInput{
		UserID: uuid.New(),
		Patch:  types.ProfilePatch{Bio: strPtr("hi")},
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, denied)
	require.Empty(t, repo.profiles, "repo must not be touched when policy rejects")
}

func TestProfileUpdateCommand_OrgFieldsMergeIntoPreferences(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	prefs := newFakePrefRepo()

	cmd := NewProfileUpdateCommand(ProfileCommandConfig{
		Repository:  newFakeProfileRepo(),
		Preferences: prefs,
		Mode:        types.TenancyMulti,
	})

	err := cmd.Execute(context.Background(), ProfileUpdateInput{
		UserID:    userID,
		OrgFields: map[string]any{"cost_center": "r-and-d"},
		Scope:     types.ScopeFilter{OrgID: orgID},
		Actor:     types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Equal(t, orgID, prefs.lastMergeOrg)
	require.Equal(t, "r-and-d", prefs.lastMergeFields["cost_center"])
}

func TestProfileUpdateCommand_OrgFieldsIgnoredWithoutOrganizations(t *testing.T) {
	prefs := newFakePrefRepo()

	cmd := NewProfileUpdateCommand(ProfileCommandConfig{
		Repository:  newFakeProfileRepo(),
		Preferences: prefs,
		Mode:        types.TenancyNone,
	})

	err := cmd.Execute(context.Background(), ProfileUpdateInput{
		UserID:    uuid.New(),
		OrgFields: map[string]any{"cost_center": "r-and-d"},
		Actor:     types.ActorRef{ID: uuid.New()},
	})

	require.NoError(t, err)
	require.Equal(t, uuid.Nil, prefs.lastMergeOrg, "no merge without organization context")
}

func TestPreferenceUpdateCommand_ThemeChangeFiresThemeHook(t *testing.T) {
	userID := uuid.New()
	prefs := newFakePrefRepo()
	sink := &recordingActivitySink{}

	var themeEvent types.ThemeEvent
	var prefEvent types.PreferenceEvent
	hooks := types.Hooks{
		AfterThemeChange: func(_ context.Context, e types.ThemeEvent) {
			themeEvent = e
		},
		AfterPreferenceChange: func(_ context.Context, e types.PreferenceEvent) {
			prefEvent = e
		},
	}

	cmd := NewPreferenceUpdateCommand(PreferenceCommandConfig{
		Repository: prefs,
		Mode:       types.TenancySingle,
		Hooks:      hooks,
		Activity:   sink,
	})

	dark := types.ThemeDark
	result := &types.Preferences{}
	err := cmd.Execute(context.Background(), PreferenceUpdateInput{
		UserID: userID,
		Patch:  types.PreferencePatch{Theme: &dark},
		Actor:  types.ActorRef{ID: userID},
		Result: result,
	})

	require.NoError(t, err)
	require.Equal(t, types.ThemeDark, result.Theme)
	require.Equal(t, types.ThemeDark, themeEvent.Theme)
	require.True(t, prefEvent.ThemeChange)
	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionThemeChanged, sink.records[0].Action)
}

func TestPreferenceUpdateCommand_NonThemePatchLogsUpdate(t *testing.T) {
	userID := uuid.New()
	prefs := newFakePrefRepo()
	sink := &recordingActivitySink{}

	themeHookFired := false
	cmd := NewPreferenceUpdateCommand(PreferenceCommandConfig{
		Repository: prefs,
		Mode:       types.TenancySingle,
		Hooks: types.Hooks{
			AfterThemeChange: func(context.Context, types.ThemeEvent) {
				themeHookFired = true
			},
		},
		Activity: sink,
	})

	locale := "fr"
	err := cmd.Execute(context.Background(), PreferenceUpdateInput{
		UserID: userID,
		Patch:  types.PreferencePatch{Locale: &locale},
		Actor:  types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.False(t, themeHookFired)
	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionPrefsUpdated, sink.records[0].Action)
}

func TestPreferenceUpdateCommand_RejectsUnknownTheme(t *testing.T) {
	cmd := NewPreferenceUpdateCommand(PreferenceCommandConfig{Repository: newFakePrefRepo()})

	bogus := types.Theme("sepia")
	err := cmd.Execute(context.Background(), PreferenceUpdateInput{
		UserID: uuid.New(),
		Patch:  types.PreferencePatch{Theme: &bogus},
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, ErrInvalidTheme)
}

func TestPreferenceResetCommand_RestoresDefaults(t *testing.T) {
	userID := uuid.New()
	prefs := newFakePrefRepo()
	dark := types.ThemeDark
	_, err := prefs.UpdatePreferences(context.Background(), userID, types.PreferencePatch{Theme: &dark})
	require.Error(t, err, "no row yet")

	sink := &recordingActivitySink{}
	cmd := NewPreferenceResetCommand(PreferenceCommandConfig{
		Repository: prefs,
		Mode:       types.TenancyNone,
		Activity:   sink,
	})

	result := &types.Preferences{}
	err = cmd.Execute(context.Background(), PreferenceResetInput{
		UserID: userID,
		Actor:  types.ActorRef{ID: userID},
		Result: result,
	})

	require.NoError(t, err)
	require.Equal(t, types.ThemeSystem, result.Theme)
	require.Equal(t, types.VisibilityPublic, result.ProfileVisibility)
	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionPrefsReset, sink.records[0].Action)
}

func TestActivityLogCommand_StampsDefaults(t *testing.T) {
	sink := &recordingActivitySink{}
	cmd := NewActivityLogCommand(ActivityLogConfig{Sink: sink, Clock: fixedClock{}})

	err := cmd.Execute(context.Background(), ActivityLogInput{
		Record: types.ActivityRecord{
			UserID: uuid.New(),
			Action: activity.ActionLogin,
		},
	})

	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	require.Equal(t, types.ActivityStatusSuccess, sink.records[0].Status)
	require.Equal(t, fixedClock{}.Now(), sink.records[0].OccurredAt)
}

func TestActivityLogCommand_RequiresAction(t *testing.T) {
	cmd := NewActivityLogCommand(ActivityLogConfig{Sink: &recordingActivitySink{}})

	err := cmd.Execute(context.Background(), ActivityLogInput{
		Record: types.ActivityRecord{UserID: uuid.New()},
	})

	require.ErrorIs(t, err, ErrActivityActionRequired)
}

// --- fakes ---

type fakeProfileRepo struct {
	profiles      map[uuid.UUID]*types.Profile
	lastAvatarURL string
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[uuid.UUID]*types.Profile{}}
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, userID uuid.UUID, _ types.ScopeFilter) (*types.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	copy := *profile
	return &copy, nil
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, profile types.Profile) (*types.Profile, error) {
	copy := profile
	f.profiles[profile.UserID] = &copy
	out := copy
	return &out, nil
}

func (f *fakeProfileRepo) DeleteProfile(_ context.Context, userID uuid.UUID) error {
	delete(f.profiles, userID)
	return nil
}

func (f *fakeProfileRepo) SetAvatarURL(_ context.Context, userID uuid.UUID, url string) error {
	f.lastAvatarURL = url
	if profile, ok := f.profiles[userID]; ok {
		profile.AvatarURL = url
	}
	return nil
}

func (f *fakeProfileRepo) ListProfiles(_ context.Context, _ types.ProfileFilter) (types.ProfilePage, error) {
	page := types.ProfilePage{}
	for _, profile := range f.profiles {
		page.Profiles = append(page.Profiles, *profile)
	}
	page.Total = len(page.Profiles)
	return page, nil
}

type fakePrefRepo struct {
	prefs           map[uuid.UUID]*types.Preferences
	lastMergeOrg    uuid.UUID
	lastMergeFields map[string]any
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{prefs: map[uuid.UUID]*types.Preferences{}}
}

func (f *fakePrefRepo) GetPreferences(_ context.Context, userID uuid.UUID) (*types.Preferences, error) {
	stored, ok := f.prefs[userID]
	if !ok {
		return nil, types.ErrPreferencesNotFound
	}
	copy := *stored
	return &copy, nil
}

func (f *fakePrefRepo) LoadOrCreate(_ context.Context, defaults types.Preferences) (*types.Preferences, error) {
	if stored, ok := f.prefs[defaults.UserID]; ok {
		copy := *stored
		return &copy, nil
	}
	copy := defaults
	if copy.ID == uuid.Nil {
		copy.ID = uuid.New()
	}
	f.prefs[defaults.UserID] = &copy
	out := copy
	return &out, nil
}

func (f *fakePrefRepo) UpdatePreferences(_ context.Context, userID uuid.UUID, patch types.PreferencePatch) (*types.Preferences, error) {
	stored, ok := f.prefs[userID]
	if !ok {
		return nil, types.ErrPreferencesNotFound
	}
	if patch.Theme != nil {
		stored.Theme = *patch.Theme
	}
	if patch.Locale != nil {
		stored.Locale = *patch.Locale
	}
	if patch.Notifications != nil {
		stored.Notifications = *patch.Notifications
	}
	copy := *stored
	return &copy, nil
}

func (f *fakePrefRepo) DeletePreferences(_ context.Context, userID uuid.UUID) error {
	delete(f.prefs, userID)
	return nil
}

func (f *fakePrefRepo) MergeOrganizationContext(_ context.Context, userID, orgID uuid.UUID, fields map[string]any) (*types.Preferences, error) {
	f.lastMergeOrg = orgID
	f.lastMergeFields = fields
	stored, ok := f.prefs[userID]
	if !ok {
		stored = &types.Preferences{ID: uuid.New(), UserID: userID}
		f.prefs[userID] = stored
	}
	if stored.OrganizationContext == nil {
		stored.OrganizationContext = map[string]map[string]any{}
	}
	if stored.OrganizationContext[orgID.String()] == nil {
		stored.OrganizationContext[orgID.String()] = map[string]any{}
	}
	for k, v := range fields {
		stored.OrganizationContext[orgID.String()][k] = v
	}
	copy := *stored
	return &copy, nil
}

type recordingActivitySink struct {
	records []types.ActivityRecord
	onLog   func(types.ActivityRecord)
	err     error
}

func (s *recordingActivitySink) Log(_ context.Context, record types.ActivityRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	if s.onLog != nil {
		s.onLog(record)
	}
	return nil
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

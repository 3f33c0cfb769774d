package query

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/tokens"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDataExportQuery_BundlesEverything(t *testing.T) {
	userID := uuid.New()
	profiles := &fakeProfileRepo{profile: &types.Profile{UserID: userID, DisplayName: "Ada"}}
	prefs := &exportPrefRepo{prefs: &types.Preferences{UserID: userID, Theme: types.ThemeDark}}
	avatars := &exportAvatarRepo{uploads: []types.Avatar{{UserID: userID}}}
	sessions := &fakeSessionRepo{sessions: []types.Session{{UserID: userID}}}
	memberships := &exportMembershipRepo{memberships: []types.Membership{{UserID: userID, Role: "member"}}}
	activities := &fakeActivityRepo{
		page: types.ActivityPage{
			Records: []types.ActivityRecord{{
				UserID: userID,
				Action: activity.ActionLogin,
				Data:   map[string]any{"password": "hunter2"},
			}},
			Total: 1,
		},
	}
	sink := &recordingSink{}
	links := &stubLinkManager{token: "signed-token"}

	q := NewDataExportQuery(ExportQueryConfig{
		Profiles:    profiles,
		Preferences: prefs,
		Avatars:     avatars,
		Sessions:    sessions,
		Memberships: memberships,
		Activity:    activities,
		Links:       links,
		Sink:        sink,
	})

	bundle, err := q.Query(context.Background(), DataExportInput{
		UserID: userID,
		Actor:  types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Equal(t, "Ada", bundle.Profile.DisplayName)
	require.Equal(t, types.ThemeDark, bundle.Preferences.Theme)
	require.Len(t, bundle.Avatars, 1)
	require.Len(t, bundle.Sessions, 1)
	require.Len(t, bundle.Memberships, 1)
	require.Len(t, bundle.Activity, 1)
	require.NotEqual(t, "hunter2", bundle.Activity[0].Data["password"], "export must be sanitized")
	require.Equal(t, "signed-token", bundle.DownloadToken)
	require.Equal(t, SecureLinkRouteExportDownload, links.lastRoute)
	require.Equal(t, userID.String(), links.lastPayload["user_id"])

	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionDataExported, sink.records[0].Action)
}

func TestDataExportQuery_IssuesDownloadToken(t *testing.T) {
	userID := uuid.New()
	links := &stubLinkManager{token: "signed-token"}
	issuer := &recordingTokenIssuer{}

	q := NewDataExportQuery(ExportQueryConfig{
		Profiles: &fakeProfileRepo{},
		Links:    links,
		Tokens:   issuer,
		TokenTTL: time.Hour,
	})

	bundle, err := q.Query(context.Background(), DataExportInput{
		UserID: userID,
		Actor:  types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Equal(t, "signed-token", bundle.DownloadToken)
	require.Len(t, issuer.issued, 1)
	token := issuer.issued[0]
	require.Equal(t, userID, token.UserID)
	require.Equal(t, links.lastPayload["jti"], token.JTI)
	require.Equal(t, token.IssuedAt.Add(time.Hour), token.ExpiresAt)
}

func TestDataExportQuery_MissingRowsYieldPartialBundle(t *testing.T) {
	userID := uuid.New()
	q := NewDataExportQuery(ExportQueryConfig{
		Profiles:    &fakeProfileRepo{},
		Preferences: &exportPrefRepo{},
	})

	bundle, err := q.Query(context.Background(), DataExportInput{
		UserID: userID,
		Actor:  types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Nil(t, bundle.Profile)
	require.Nil(t, bundle.Preferences)
	require.Equal(t, userID, bundle.UserID)
}

func TestDataExportQuery_GateDisabled(t *testing.T) {
	gate := &stubFeatureGate{enabled: false}
	sink := &recordingSink{}

	q := NewDataExportQuery(ExportQueryConfig{
		Profiles: &fakeProfileRepo{},
		Gate:     gate,
		Sink:     sink,
	})

	_, err := q.Query(context.Background(), DataExportInput{
		UserID: uuid.New(),
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, ErrExportDisabled)
	require.Contains(t, gate.keys, featureDataExport)
	require.Empty(t, sink.records, "disabled exports must not be logged as exports")
}

func TestDataExportQuery_PaginatesActivity(t *testing.T) {
	userID := uuid.New()
	activities := &pagedActivityRepo{total: 450}

	q := NewDataExportQuery(ExportQueryConfig{
		Profiles: &fakeProfileRepo{},
		Activity: activities,
	})

	bundle, err := q.Query(context.Background(), DataExportInput{
		UserID: userID,
		Actor:  types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Len(t, bundle.Activity, 450)
	require.Equal(t, 3, activities.calls)
}

type recordingTokenIssuer struct {
	issued []tokens.ExportToken
}

func (r *recordingTokenIssuer) Issue(_ context.Context, token tokens.ExportToken) (*tokens.ExportToken, error) {
	r.issued = append(r.issued, token)
	copy := token
	return &copy, nil
}

type exportPrefRepo struct {
	prefs *types.Preferences
}

func (f *exportPrefRepo) GetPreferences(_ context.Context, userID uuid.UUID) (*types.Preferences, error) {
	if f.prefs == nil || f.prefs.UserID != userID {
		return nil, types.ErrPreferencesNotFound
	}
	copy := *f.prefs
	return &copy, nil
}

func (f *exportPrefRepo) LoadOrCreate(_ context.Context, defaults types.Preferences) (*types.Preferences, error) {
	copy := defaults
	return &copy, nil
}

func (f *exportPrefRepo) UpdatePreferences(context.Context, uuid.UUID, types.PreferencePatch) (*types.Preferences, error) {
	return nil, types.ErrPreferencesNotFound
}

func (f *exportPrefRepo) DeletePreferences(context.Context, uuid.UUID) error { return nil }

func (f *exportPrefRepo) MergeOrganizationContext(context.Context, uuid.UUID, uuid.UUID, map[string]any) (*types.Preferences, error) {
	return nil, types.ErrPreferencesNotFound
}

type exportAvatarRepo struct {
	uploads []types.Avatar
}

func (f *exportAvatarRepo) InsertAvatar(_ context.Context, avatar types.Avatar) (*types.Avatar, error) {
	copy := avatar
	return &copy, nil
}

func (f *exportAvatarRepo) GetAvatar(context.Context, uuid.UUID, uuid.UUID) (*types.Avatar, error) {
	return nil, types.ErrAvatarNotFound
}

func (f *exportAvatarRepo) ListAvatars(context.Context, uuid.UUID) ([]types.Avatar, error) {
	return f.uploads, nil
}

func (f *exportAvatarRepo) ActiveAvatar(context.Context, uuid.UUID) (*types.Avatar, error) {
	return nil, types.ErrAvatarNotFound
}

func (f *exportAvatarRepo) ActivateAvatar(context.Context, uuid.UUID, uuid.UUID) (*types.Avatar, error) {
	return nil, types.ErrAvatarNotFound
}

func (f *exportAvatarRepo) DeleteAvatar(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type exportMembershipRepo struct {
	memberships []types.Membership
}

func (f *exportMembershipRepo) GetMembership(context.Context, uuid.UUID, uuid.UUID) (*types.Membership, error) {
	return nil, nil
}

func (f *exportMembershipRepo) ListMemberships(context.Context, uuid.UUID) ([]types.Membership, error) {
	return f.memberships, nil
}

// pagedActivityRepo simulates a capped repository that pages through total rows.
type pagedActivityRepo struct {
	total int
	calls int
}

func (f *pagedActivityRepo) ListActivity(_ context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	f.calls++
	limit := filter.Pagination.Limit
	offset := filter.Pagination.Offset
	remaining := f.total - offset
	if remaining < 0 {
		remaining = 0
	}
	count := limit
	if count > remaining {
		count = remaining
	}
	records := make([]types.ActivityRecord, count)
	next := offset + count
	return types.ActivityPage{
		Records:    records,
		Total:      f.total,
		NextOffset: next,
		HasMore:    next < f.total,
	}, nil
}

package goauth

import (
	"context"
	"testing"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	auth "github.com/goliatone/go-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSeedProfilePreservesExistingFields(t *testing.T) {
	userID := uuid.New()
	repo := &seedProfileRepo{
		rows: map[uuid.UUID]*types.Profile{
			userID: {UserID: userID, DisplayName: "Custom Name", Timezone: "UTC"},
		},
	}
	syncer, err := NewSyncer(SyncerConfig{Profiles: repo})
	require.NoError(t, err)

	profile, err := syncer.SeedProfile(context.Background(), &auth.User{
		ID:        userID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Metadata:  map[string]any{"phone": "+1 555 0100"},
	}, types.ScopeFilter{})
	require.NoError(t, err)
	require.Equal(t, "Custom Name", profile.DisplayName)
	require.Equal(t, "Ada", profile.FirstName)
	require.Equal(t, "+1 555 0100", profile.Phone)
	require.Equal(t, "UTC", profile.Timezone)
}

func TestSeedProfileCreatesFromAuthRow(t *testing.T) {
	userID := uuid.New()
	repo := &seedProfileRepo{rows: map[uuid.UUID]*types.Profile{}}
	syncer, err := NewSyncer(SyncerConfig{Profiles: repo})
	require.NoError(t, err)

	profile, err := syncer.SeedProfile(context.Background(), &auth.User{
		ID:       userID,
		Email:    "grace@example.com",
		Username: "",
	}, types.ScopeFilter{})
	require.NoError(t, err)
	require.Equal(t, "grace", profile.DisplayName)
}

func TestRecordLoginInsertsSessionAndAudit(t *testing.T) {
	userID := uuid.New()
	sessions := &seedSessionRepo{}
	sink := &seedSink{}
	syncer, err := NewSyncer(SyncerConfig{Sessions: sessions, Sink: sink})
	require.NoError(t, err)

	session, err := syncer.RecordLogin(context.Background(), LoginInput{
		UserID:     userID,
		DeviceType: "mobile",
		IPAddress:  "203.0.113.7",
	})
	require.NoError(t, err)
	require.Equal(t, userID, session.UserID)
	require.Len(t, sessions.inserted, 1)
	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionLogin, sink.records[0].Action)
	require.Equal(t, "203.0.113.7", sink.records[0].IPAddress)
}

func TestNewSyncerRequiresAStore(t *testing.T) {
	_, err := NewSyncer(SyncerConfig{})
	require.Error(t, err)
}

type seedProfileRepo struct {
	rows map[uuid.UUID]*types.Profile
}

func (r *seedProfileRepo) GetProfile(_ context.Context, userID uuid.UUID, _ types.ScopeFilter) (*types.Profile, error) {
	if profile, ok := r.rows[userID]; ok {
		clone := *profile
		return &clone, nil
	}
	return nil, types.ErrProfileNotFound
}

func (r *seedProfileRepo) UpsertProfile(_ context.Context, profile types.Profile) (*types.Profile, error) {
	clone := profile
	r.rows[profile.UserID] = &clone
	return &clone, nil
}

func (r *seedProfileRepo) DeleteProfile(context.Context, uuid.UUID) error { return nil }

func (r *seedProfileRepo) SetAvatarURL(context.Context, uuid.UUID, string) error { return nil }

func (r *seedProfileRepo) ListProfiles(context.Context, types.ProfileFilter) (types.ProfilePage, error) {
	return types.ProfilePage{}, nil
}

type seedSessionRepo struct {
	inserted []types.Session
}

func (r *seedSessionRepo) InsertSession(_ context.Context, session types.Session) (*types.Session, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.inserted = append(r.inserted, session)
	clone := session
	return &clone, nil
}

func (r *seedSessionRepo) ListSessions(context.Context, uuid.UUID) ([]types.Session, error) {
	return nil, nil
}

func (r *seedSessionRepo) GetSession(context.Context, uuid.UUID, uuid.UUID) (*types.Session, error) {
	return nil, types.ErrSessionNotFound
}

func (r *seedSessionRepo) RevokeSession(context.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (r *seedSessionRepo) RevokeAllSessions(context.Context, uuid.UUID, string) (int, error) {
	return 0, nil
}

func (r *seedSessionRepo) DeviceSummary(context.Context, uuid.UUID) ([]types.DeviceSummary, error) {
	return nil, nil
}

type seedSink struct {
	records []types.ActivityRecord
}

func (s *seedSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

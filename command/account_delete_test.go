package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAccountDeleteCommand_RequiresConfirmation(t *testing.T) {
	cmd := NewAccountDeleteCommand(AccountDeleteConfig{
		Profiles: newFakeProfileRepo(),
	})

	err := cmd.Execute(context.Background(), AccountDeleteInput{
		UserID: uuid.New(),
		Actor:  types.ActorRef{ID: uuid.New()},
	})

	require.ErrorIs(t, err, ErrDeleteNotConfirmed)
}

func TestAccountDeleteCommand_CascadesEverything(t *testing.T) {
	userID := uuid.New()

	profiles := newFakeProfileRepo()
	_, err := profiles.UpsertProfile(context.Background(), types.Profile{UserID: userID, DisplayName: "Ada"})
	require.NoError(t, err)

	prefs := newFakePrefRepo()
	_, err = prefs.LoadOrCreate(context.Background(), types.Preferences{UserID: userID})
	require.NoError(t, err)

	sessions := newFakeSessionRepo()
	sessions.seed(userID)
	sessions.seed(userID)

	avatars := newFakeAvatarRepo()
	store := storage.NewMemoryStore("")
	avatarID := uuid.New()
	canonical := avatarObjectPath(userID, avatarID, "canonical")
	_, err = store.Upload(context.Background(), canonical, bytes.NewReader([]byte("jpeg")), 4, "image/jpeg")
	require.NoError(t, err)
	_, err = avatars.InsertAvatar(context.Background(), types.Avatar{
		ID:          avatarID,
		UserID:      userID,
		StoragePath: canonical,
		IsActive:    true,
	})
	require.NoError(t, err)

	sink := &recordingActivitySink{}
	exportTokens := &recordingTokenRevoker{}
	cmd := NewAccountDeleteCommand(AccountDeleteConfig{
		Profiles:     profiles,
		Preferences:  prefs,
		Avatars:      avatars,
		Sessions:     sessions,
		Store:        store,
		ExportTokens: exportTokens,
		Activity:     sink,
	})

	revokedCount := 0
	err = cmd.Execute(context.Background(), AccountDeleteInput{
		UserID:          userID,
		Reason:          "user request",
		Confirmed:       true,
		Actor:           types.ActorRef{ID: userID},
		SessionsRevoked: &revokedCount,
	})

	require.NoError(t, err)
	require.Equal(t, 2, revokedCount)
	require.Empty(t, profiles.profiles)
	require.Empty(t, prefs.prefs)
	require.Empty(t, avatars.rows)
	require.Equal(t, 0, store.Len())

	require.Len(t, sink.records, 1)
	require.Equal(t, activity.ActionAccountDeleted, sink.records[0].Action)
	require.Equal(t, "user request", sink.records[0].Data["reason"])
	require.Equal(t, []uuid.UUID{userID}, exportTokens.revoked)
}

type recordingTokenRevoker struct {
	revoked []uuid.UUID
}

func (r *recordingTokenRevoker) RevokeForUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.revoked = append(r.revoked, userID)
	return 1, nil
}

func TestAccountDeleteCommand_WorksWithoutOptionalStores(t *testing.T) {
	userID := uuid.New()
	profiles := newFakeProfileRepo()
	_, err := profiles.UpsertProfile(context.Background(), types.Profile{UserID: userID})
	require.NoError(t, err)

	cmd := NewAccountDeleteCommand(AccountDeleteConfig{Profiles: profiles})

	err = cmd.Execute(context.Background(), AccountDeleteInput{
		UserID:    userID,
		Confirmed: true,
		Actor:     types.ActorRef{ID: userID},
	})

	require.NoError(t, err)
	require.Empty(t, profiles.profiles)
}

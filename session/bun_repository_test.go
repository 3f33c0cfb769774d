package session

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	created, err := repo.InsertSession(ctx, types.Session{
		UserID:     userID,
		DeviceType: "desktop",
		DeviceName: "MacBook Pro",
		Browser:    "Firefox",
		OS:         "macOS",
		IPAddress:  "10.1.2.3",
		IsCurrent:  true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.NotZero(t, created.LastSeenAt)

	sessions, err := repo.ListSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.True(t, sessions[0].IsCurrent)
	require.Nil(t, sessions[0].RevokedAt)
}

func TestRepository_RevokeSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	created, err := repo.InsertSession(ctx, types.Session{UserID: userID, DeviceType: "mobile", IsCurrent: true})
	require.NoError(t, err)

	revoked, err := repo.RevokeSession(ctx, created.ID, userID, "user request")
	require.NoError(t, err)
	require.True(t, revoked)

	fetched, err := repo.GetSession(ctx, created.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, fetched.RevokedAt)
	require.Equal(t, "user request", fetched.RevokedReason)
	require.False(t, fetched.IsCurrent)

	// second revoke is a no-op, not an error
	revoked, err = repo.RevokeSession(ctx, created.ID, userID, "again")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRepository_RevokeSession_WrongUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	owner := uuid.New()
	created, err := repo.InsertSession(ctx, types.Session{UserID: owner, DeviceType: "mobile"})
	require.NoError(t, err)

	// the session id alone is not enough; the user id must match too
	_, err = repo.RevokeSession(ctx, created.ID, uuid.New(), "hijack")
	require.ErrorIs(t, err, types.ErrSessionNotFound)

	fetched, err := repo.GetSession(ctx, created.ID, owner)
	require.NoError(t, err)
	require.Nil(t, fetched.RevokedAt)
}

func TestRepository_RevokeAllSessions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := repo.InsertSession(ctx, types.Session{UserID: userID, DeviceType: "desktop"})
		require.NoError(t, err)
	}
	other, err := repo.InsertSession(ctx, types.Session{UserID: uuid.New(), DeviceType: "desktop"})
	require.NoError(t, err)

	count, err := repo.RevokeAllSessions(ctx, userID, "account deleted")
	require.NoError(t, err)
	require.Equal(t, 3, count)

	sessions, err := repo.ListSessions(ctx, userID)
	require.NoError(t, err)
	for _, s := range sessions {
		require.NotNil(t, s.RevokedAt)
	}

	// other users' sessions stay untouched
	fetched, err := repo.GetSession(ctx, other.ID, other.UserID)
	require.NoError(t, err)
	require.Nil(t, fetched.RevokedAt)
}

func TestRepository_DeviceSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	for _, device := range []string{"desktop", "desktop", "mobile"} {
		_, err := repo.InsertSession(ctx, types.Session{UserID: userID, DeviceType: device})
		require.NoError(t, err)
	}
	revokedSession, err := repo.InsertSession(ctx, types.Session{UserID: userID, DeviceType: "tablet"})
	require.NoError(t, err)
	_, err = repo.RevokeSession(ctx, revokedSession.ID, userID, "gone")
	require.NoError(t, err)

	summary, err := repo.DeviceSummary(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	require.Equal(t, "desktop", summary[0].DeviceType)
	require.Equal(t, 2, summary[0].Sessions)
	require.Equal(t, "mobile", summary[1].DeviceType)
	require.Equal(t, 1, summary[1].Sessions)
}

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00001_accounts.up.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}

package profile

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

func TestRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	orgID := uuid.New()
	actor := uuid.New()
	profile := types.Profile{
		UserID:      userID,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DisplayName: "Ada Lovelace",
		Locale:      "en",
		Timezone:    "Europe/London",
		Scope:       types.ScopeFilter{OrgID: orgID},
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}

	created, err := repo.UpsertProfile(ctx, profile)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", created.DisplayName)
	require.Equal(t, orgID, created.Scope.OrgID)
	require.NotZero(t, created.CreatedAt)
	require.NotZero(t, created.UpdatedAt)

	updatedProfile := *created
	updatedProfile.DisplayName = "A. Lovelace"
	updatedProfile.Bio = "Analyst"
	updatedProfile.UpdatedBy = uuid.New()

	updated, err := repo.UpsertProfile(ctx, updatedProfile)
	require.NoError(t, err)
	require.Equal(t, "A. Lovelace", updated.DisplayName)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, updatedProfile.UpdatedBy, updated.UpdatedBy)
	require.Equal(t, "Analyst", updated.Bio)

	fetched, err := repo.GetProfile(ctx, userID, types.ScopeFilter{OrgID: orgID})
	require.NoError(t, err)
	require.Equal(t, "A. Lovelace", fetched.DisplayName)
	require.Equal(t, "Europe/London", fetched.Timezone)
}

func TestRepository_GetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	_, err = repo.GetProfile(ctx, uuid.New(), types.ScopeFilter{})
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestRepository_GetProfile_ScopeMismatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	orgID := uuid.New()
	_, err = repo.UpsertProfile(ctx, types.Profile{
		UserID:      userID,
		DisplayName: "Scoped",
		Scope:       types.ScopeFilter{OrgID: orgID},
	})
	require.NoError(t, err)

	_, err = repo.GetProfile(ctx, userID, types.ScopeFilter{OrgID: uuid.New()})
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestRepository_SetAvatarURL(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, repo.SetAvatarURL(ctx, userID, "https://cdn.example.com/a.jpg"))

	fetched, err := repo.GetProfile(ctx, userID, types.ScopeFilter{})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.jpg", fetched.AvatarURL)

	// updating an existing row keeps the rest of the profile intact
	_, err = repo.UpsertProfile(ctx, types.Profile{UserID: userID, DisplayName: "Keep Me", AvatarURL: fetched.AvatarURL})
	require.NoError(t, err)
	require.NoError(t, repo.SetAvatarURL(ctx, userID, "https://cdn.example.com/b.jpg"))

	fetched, err = repo.GetProfile(ctx, userID, types.ScopeFilter{})
	require.NoError(t, err)
	require.Equal(t, "Keep Me", fetched.DisplayName)
	require.Equal(t, "https://cdn.example.com/b.jpg", fetched.AvatarURL)
}

func TestRepository_DeleteProfile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	userID := uuid.New()
	_, err = repo.UpsertProfile(ctx, types.Profile{UserID: userID, DisplayName: "Gone Soon"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProfile(ctx, userID))

	_, err = repo.GetProfile(ctx, userID, types.ScopeFilter{})
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestRepository_ListProfiles(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	orgID := uuid.New()
	otherOrg := uuid.New()
	for _, p := range []types.Profile{
		{UserID: uuid.New(), FirstName: "Grace", LastName: "Hopper", DisplayName: "Grace Hopper", Scope: types.ScopeFilter{OrgID: orgID}},
		{UserID: uuid.New(), FirstName: "Alan", LastName: "Turing", DisplayName: "Alan Turing", Scope: types.ScopeFilter{OrgID: orgID}},
		{UserID: uuid.New(), FirstName: "Outside", LastName: "Org", DisplayName: "Outside Org", Scope: types.ScopeFilter{OrgID: otherOrg}},
	} {
		_, err := repo.UpsertProfile(ctx, p)
		require.NoError(t, err)
	}

	page, err := repo.ListProfiles(ctx, types.ProfileFilter{Scope: types.ScopeFilter{OrgID: orgID}})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)
	require.Equal(t, 2, page.Total)
	require.False(t, page.HasMore)

	page, err = repo.ListProfiles(ctx, types.ProfileFilter{
		Scope:   types.ScopeFilter{OrgID: orgID},
		Keyword: "hopper",
	})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	require.Equal(t, "Grace Hopper", page.Profiles[0].DisplayName)

	page, err = repo.ListProfiles(ctx, types.ProfileFilter{
		Scope:      types.ScopeFilter{OrgID: orgID},
		Pagination: types.Pagination{Limit: 1},
	})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	require.True(t, page.HasMore)
	require.Equal(t, 1, page.NextOffset)
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

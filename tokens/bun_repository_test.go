package tokens

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_IssueAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	userID := uuid.New()
	issued, err := repo.Issue(ctx, ExportToken{
		UserID:    userID,
		JTI:       "jti-issue",
		ObjectKey: "exports/bundle.zip",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, issued.ID)
	require.Equal(t, StatusIssued, issued.Status)
	require.False(t, issued.IssuedAt.IsZero())

	found, err := repo.GetByJTI(ctx, "jti-issue")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, userID, found.UserID)
	require.Equal(t, "exports/bundle.zip", found.ObjectKey)

	missing, err := repo.GetByJTI(ctx, "jti-absent")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRepository_IssueRequiresUserAndJTI(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Issue(ctx, ExportToken{JTI: "jti-no-user"})
	require.Error(t, err)

	_, err = repo.Issue(ctx, ExportToken{UserID: uuid.New()})
	require.Error(t, err)
}

func TestRepository_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Issue(ctx, ExportToken{
		UserID:    uuid.New(),
		JTI:       "jti-consume",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Consume(ctx, "jti-consume"))

	consumed, err := repo.GetByJTI(ctx, "jti-consume")
	require.NoError(t, err)
	require.Equal(t, StatusUsed, consumed.Status)
	require.False(t, consumed.UsedAt.IsZero())

	require.Error(t, repo.Consume(ctx, "jti-consume"))
}

func TestRepository_ConsumeRejectsExpired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Issue(ctx, ExportToken{
		UserID:    uuid.New(),
		JTI:       "jti-expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	require.Error(t, repo.Consume(ctx, "jti-expired"))
}

func TestRepository_RevokeForUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	userID := uuid.New()
	for _, jti := range []string{"jti-a", "jti-b"} {
		_, err := repo.Issue(ctx, ExportToken{
			UserID:    userID,
			JTI:       jti,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.Issue(ctx, ExportToken{
		UserID:    uuid.New(),
		JTI:       "jti-other",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	revoked, err := repo.RevokeForUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, revoked)

	require.Error(t, repo.Consume(ctx, "jti-a"))

	other, err := repo.GetByJTI(ctx, "jti-other")
	require.NoError(t, err)
	require.Equal(t, StatusIssued, other.Status)
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	content, err := os.ReadFile("../data/sql/migrations/sqlite/00002_export_tokens.up.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)
	return repo
}

func splitStatements(ddl string) []string {
	lines := strings.Split(ddl, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString("\n")
		if strings.HasSuffix(line, ";") {
			statements = append(statements, builder.String())
			builder.Reset()
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}

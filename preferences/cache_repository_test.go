package preferences

import (
	"context"
	"testing"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestPreferenceRepository_CacheWrapsRepository(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	base := newBaseRecordRepository(db)
	repo, err := NewRepository(RepositoryConfig{Repository: base}, WithCache(true))
	require.NoError(t, err)

	_, ok := repo.preferenceStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
}

func TestPreferenceRepository_CacheDoesNotDoubleWrap(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	base := newBaseRecordRepository(db)
	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	keySerializer := cache.NewDefaultKeySerializer()
	cached := repositorycache.New(base, cacheService, keySerializer)

	repo, err := NewRepository(RepositoryConfig{Repository: cached}, WithCache(true))
	require.NoError(t, err)

	stored, ok := repo.preferenceStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
	require.Same(t, cached, stored)
}

func TestPreferenceRepository_GetPreferencesUsesCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	base := newBaseRecordRepository(db)
	spy := &spyRecordRepository{Repository: base}
	repo, err := NewRepository(RepositoryConfig{Repository: spy}, WithCache(true))
	require.NoError(t, err)

	userID := uuid.New()
	_, err = repo.LoadOrCreate(ctx, Defaults(userID, types.TenancySingle))
	require.NoError(t, err)

	spy.listCalls = 0
	_, err = repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	_, err = repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, spy.listCalls)
}

func TestPreferenceRepository_UpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	base := newBaseRecordRepository(db)
	spy := &spyRecordRepository{Repository: base}
	repo, err := NewRepository(RepositoryConfig{Repository: spy}, WithCache(true))
	require.NoError(t, err)

	userID := uuid.New()
	_, err = repo.LoadOrCreate(ctx, Defaults(userID, types.TenancySingle))
	require.NoError(t, err)

	_, err = repo.GetPreferences(ctx, userID)
	require.NoError(t, err)

	theme := types.ThemeDark
	_, err = repo.UpdatePreferences(ctx, userID, types.PreferencePatch{Theme: &theme})
	require.NoError(t, err)

	spy.listCalls = 0
	fetched, err := repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, types.ThemeDark, fetched.Theme)
	require.Equal(t, 1, spy.listCalls)
}

type spyRecordRepository struct {
	repository.Repository[*Record]
	listCalls int
}

func (s *spyRecordRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Record, int, error) {
	s.listCalls++
	return s.Repository.List(ctx, criteria...)
}

func newBaseRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.NewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(rec *Record) uuid.UUID {
			if rec == nil {
				return uuid.Nil
			}
			return rec.ID
		},
		SetID: func(rec *Record, id uuid.UUID) {
			if rec != nil {
				rec.ID = id
			}
		},
	})
}

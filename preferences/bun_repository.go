package preferences

import (
	"context"
	"errors"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires dependencies for the Bun-backed preference store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type preferenceStore interface {
	repository.Repository[*Record]
}

// Repository implements types.PreferenceRepository.
type Repository struct {
	preferenceStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default preference repository. Passing
// WithCache(true) wraps reads in the go-repository-cache decorator; writes
// invalidate through the same decorator.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("preferences: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
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

	opts := applyRepositoryOptions(options)
	if opts.CacheEnabled {
		if _, alreadyCached := repo.(*repositorycache.CachedRepository[*Record]); !alreadyCached {
			cacheCfg := cache.DefaultConfig()
			if opts.CacheConfig != nil {
				cacheCfg = *opts.CacheConfig
			}
			cacheService, err := cache.NewCacheService(cacheCfg)
			if err != nil {
				return nil, err
			}
			repo = repositorycache.New(repo, cacheService, cache.NewDefaultKeySerializer())
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		preferenceStore: repo,
		clock:           clock,
		idGen:           idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.PreferenceRepository     = (*Repository)(nil)
)

// GetPreferences returns the stored preference row for the user.
func (r *Repository) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.Preferences, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	existing, err := r.findExisting(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrPreferencesNotFound
		}
		return nil, err
	}
	return toDomainPtr(existing), nil
}

// LoadOrCreate returns the existing row or inserts the supplied defaults. The
// unique index on user_id makes concurrent first loads safe: the losing
// insert fails and the winner's row is returned instead.
func (r *Repository) LoadOrCreate(ctx context.Context, defaults types.Preferences) (*types.Preferences, error) {
	if defaults.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	existing, err := r.findExisting(ctx, defaults.UserID)
	switch {
	case err == nil:
		return toDomainPtr(existing), nil
	case repository.IsRecordNotFound(err):
	default:
		return nil, err
	}

	now := r.clock.Now()
	rec := fromDomain(defaults)
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	created, err := r.Create(ctx, rec)
	if err != nil {
		// lost the race to another writer; the unique index rejected us
		if winner, findErr := r.findExisting(ctx, defaults.UserID); findErr == nil {
			return toDomainPtr(winner), nil
		}
		return nil, err
	}
	return toDomainPtr(created), nil
}

// UpdatePreferences applies a partial patch to the stored row.
func (r *Repository) UpdatePreferences(ctx context.Context, userID uuid.UUID, patch types.PreferencePatch) (*types.Preferences, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	existing, err := r.findExisting(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrPreferencesNotFound
		}
		return nil, err
	}

	applyPatch(existing, patch)
	existing.UpdatedAt = r.clock.Now()
	updated, err := r.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(updated), nil
}

// DeletePreferences removes the row for the user. Missing rows are not an error.
func (r *Repository) DeletePreferences(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return r.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("user_id = ?", userID)
	})
}

// MergeOrganizationContext merges org-scoped extension fields into the
// organization_context blob without touching other organizations' entries.
func (r *Repository) MergeOrganizationContext(ctx context.Context, userID uuid.UUID, orgID uuid.UUID, fields map[string]any) (*types.Preferences, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if orgID == uuid.Nil {
		return nil, types.ErrOrgIDRequired
	}
	existing, err := r.findExisting(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrPreferencesNotFound
		}
		return nil, err
	}

	orgCtx := cloneOrgContext(existing.OrganizationContext)
	key := orgID.String()
	entry := orgCtx[key]
	if entry == nil {
		entry = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		entry[k] = v
	}
	orgCtx[key] = entry
	existing.OrganizationContext = orgCtx
	existing.UpdatedAt = r.clock.Now()

	updated, err := r.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(updated), nil
}

func (r *Repository) findExisting(ctx context.Context, userID uuid.UUID) (*Record, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("user_id = ?", userID).Limit(1)
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return rows[0], nil
}

func applyPatch(rec *Record, patch types.PreferencePatch) {
	if patch.Theme != nil {
		rec.Theme = string(*patch.Theme)
	}
	if patch.Locale != nil {
		rec.Locale = *patch.Locale
	}
	if patch.Notifications != nil {
		rec.NotifyEmail = patch.Notifications.Email
		rec.NotifyPush = patch.Notifications.Push
		rec.NotifySMS = patch.Notifications.SMS
		rec.NotifyMarketing = patch.Notifications.Marketing
		rec.NotifySecurityAlerts = patch.Notifications.SecurityAlerts
		rec.NotifyActivityDigest = patch.Notifications.ActivityDigest
	}
	if patch.ProfileVisibility != nil {
		rec.ProfileVisibility = string(*patch.ProfileVisibility)
	}
	if patch.EmailVisibility != nil {
		rec.EmailVisibility = string(*patch.EmailVisibility)
	}
	if patch.ActivityVisibility != nil {
		rec.ActivityVisibility = string(*patch.ActivityVisibility)
	}
	if patch.QuietHours != nil {
		rec.QuietHoursEnabled = patch.QuietHours.Enabled
		rec.QuietHoursStart = patch.QuietHours.Start
		rec.QuietHoursEnd = patch.QuietHours.End
	}
	if patch.Accessibility != nil {
		rec.ReduceMotion = patch.Accessibility.ReduceMotion
		rec.HighContrast = patch.Accessibility.HighContrast
		rec.LargeText = patch.Accessibility.LargeText
	}
	if patch.DataRetentionDays != nil {
		rec.DataRetentionDays = ClampDataRetention(*patch.DataRetentionDays)
	}
}

func fromDomain(prefs types.Preferences) *Record {
	return &Record{
		ID:                   prefs.ID,
		UserID:               prefs.UserID,
		Theme:                string(prefs.Theme),
		Locale:               prefs.Locale,
		NotifyEmail:          prefs.Notifications.Email,
		NotifyPush:           prefs.Notifications.Push,
		NotifySMS:            prefs.Notifications.SMS,
		NotifyMarketing:      prefs.Notifications.Marketing,
		NotifySecurityAlerts: prefs.Notifications.SecurityAlerts,
		NotifyActivityDigest: prefs.Notifications.ActivityDigest,
		ProfileVisibility:    string(prefs.ProfileVisibility),
		EmailVisibility:      string(prefs.EmailVisibility),
		ActivityVisibility:   string(prefs.ActivityVisibility),
		QuietHoursEnabled:    prefs.QuietHours.Enabled,
		QuietHoursStart:      prefs.QuietHours.Start,
		QuietHoursEnd:        prefs.QuietHours.End,
		ReduceMotion:         prefs.Accessibility.ReduceMotion,
		HighContrast:         prefs.Accessibility.HighContrast,
		LargeText:            prefs.Accessibility.LargeText,
		DataRetentionDays:    ClampDataRetention(prefs.DataRetentionDays),
		OrganizationContext:  cloneOrgContext(prefs.OrganizationContext),
		CreatedAt:            prefs.CreatedAt,
		UpdatedAt:            prefs.UpdatedAt,
	}
}

func toDomain(rec *Record) types.Preferences {
	if rec == nil {
		return types.Preferences{}
	}
	return types.Preferences{
		ID:     rec.ID,
		UserID: rec.UserID,
		Theme:  types.Theme(rec.Theme),
		Locale: rec.Locale,
		Notifications: types.NotificationSettings{
			Email:          rec.NotifyEmail,
			Push:           rec.NotifyPush,
			SMS:            rec.NotifySMS,
			Marketing:      rec.NotifyMarketing,
			SecurityAlerts: rec.NotifySecurityAlerts,
			ActivityDigest: rec.NotifyActivityDigest,
		},
		ProfileVisibility:  types.Visibility(rec.ProfileVisibility),
		EmailVisibility:    types.Visibility(rec.EmailVisibility),
		ActivityVisibility: types.Visibility(rec.ActivityVisibility),
		QuietHours: types.QuietHours{
			Enabled: rec.QuietHoursEnabled,
			Start:   rec.QuietHoursStart,
			End:     rec.QuietHoursEnd,
		},
		Accessibility: types.AccessibilitySettings{
			ReduceMotion: rec.ReduceMotion,
			HighContrast: rec.HighContrast,
			LargeText:    rec.LargeText,
		},
		DataRetentionDays:   rec.DataRetentionDays,
		OrganizationContext: cloneOrgContext(rec.OrganizationContext),
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func toDomainPtr(rec *Record) *types.Preferences {
	prefs := toDomain(rec)
	return &prefs
}

// FromPreferences converts the domain preferences into the Bun model.
func FromPreferences(prefs types.Preferences) *Record {
	return fromDomain(prefs)
}

// ToPreferences converts the Bun model into the domain preferences.
func ToPreferences(rec *Record) types.Preferences {
	return toDomain(rec)
}

func cloneOrgContext(origin map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(origin))
	for org, fields := range origin {
		entry := make(map[string]any, len(fields))
		for k, v := range fields {
			entry[k] = v
		}
		out[org] = entry
	}
	return out
}

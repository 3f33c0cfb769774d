package profile

import (
	"context"
	"errors"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed profile repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

type profileStore interface {
	repository.Repository[*Record]
}

// Repository implements types.ProfileRepository using Bun.
type Repository struct {
	profileStore
	clock types.Clock
}

// NewRepository constructs the default profile repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("profile: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.UserID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.UserID = id
				}
			},
		})
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	return &Repository{
		profileStore: repo,
		clock:        clock,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.ProfileRepository        = (*Repository)(nil)
)

// GetProfile returns the profile for the supplied user within the provided scope.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec, err := r.Get(ctx, selectUserID(userID), scopeCriteria(scope))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// UpsertProfile inserts or updates the user profile based on whether it already exists.
func (r *Repository) UpsertProfile(ctx context.Context, profile types.Profile) (*types.Profile, error) {
	if profile.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	now := r.clock.Now()
	rec := fromDomain(profile)
	rec.UpdatedAt = now
	if rec.UpdatedBy == uuid.Nil {
		rec.UpdatedBy = profile.CreatedBy
	}

	existing, err := r.Get(ctx, selectUserID(profile.UserID), scopeCriteria(profile.Scope))
	switch {
	case err == nil:
		rec.CreatedAt = existing.CreatedAt
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.CreatedBy == uuid.Nil {
			rec.CreatedBy = existing.CreatedBy
			if rec.CreatedBy == uuid.Nil {
				rec.CreatedBy = rec.UpdatedBy
			}
		}
		if rec.AvatarURL == "" {
			rec.AvatarURL = existing.AvatarURL
		}
		updated, err := r.Update(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(updated), nil
	case repository.IsRecordNotFound(err):
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.CreatedBy == uuid.Nil {
			rec.CreatedBy = rec.UpdatedBy
		}
		created, err := r.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(created), nil
	default:
		return nil, err
	}
}

// DeleteProfile removes the profile row for the user. Missing rows are not an error.
func (r *Repository) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return r.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("user_id = ?", userID)
	})
}

// SetAvatarURL updates the denormalized avatar mirror on the profile row,
// creating a minimal profile when none exists yet.
func (r *Repository) SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) error {
	if userID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	now := r.clock.Now()
	existing, err := r.Get(ctx, selectUserID(userID))
	switch {
	case err == nil:
		existing.AvatarURL = url
		existing.UpdatedAt = now
		_, err = r.Update(ctx, existing)
		return err
	case repository.IsRecordNotFound(err):
		_, err = r.Create(ctx, &Record{
			UserID:    userID,
			AvatarURL: url,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	default:
		return err
	}
}

// ListProfiles returns a paginated profile listing for admin surfaces.
func (r *Repository) ListProfiles(ctx context.Context, filter types.ProfileFilter) (types.ProfilePage, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.OrderExpr("display_name ASC, user_id ASC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
			return applyProfileFilter(q, filter)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return types.ProfilePage{}, err
	}
	profiles := make([]types.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, *toDomain(row))
	}
	return types.ProfilePage{
		Profiles:   profiles,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

func applyProfileFilter(q *bun.SelectQuery, filter types.ProfileFilter) *bun.SelectQuery {
	if filter.Scope.OrgID != uuid.Nil {
		q = q.Where("org_id = ?", filter.Scope.OrgID)
	}
	if len(filter.UserIDs) > 0 {
		q = q.Where("user_id IN (?)", bun.In(filter.UserIDs))
	}
	if strings.TrimSpace(filter.Keyword) != "" {
		keyword := "%" + strings.ToLower(strings.TrimSpace(filter.Keyword)) + "%"
		q = q.Where("LOWER(display_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company) LIKE ?",
			keyword, keyword, keyword, keyword)
	}
	return q
}

func scopeCriteria(scope types.ScopeFilter) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if scope.OrgID != uuid.Nil {
			q = q.Where("org_id = ?", scope.OrgID)
		}
		return q
	}
}

func selectUserID(userID uuid.UUID) repository.SelectCriteria {
	return repository.SelectBy("user_id", "=", userID.String())
}

func fromDomain(profile types.Profile) *Record {
	return &Record{
		UserID:      profile.UserID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		Phone:       profile.Phone,
		Website:     profile.Website,
		JobTitle:    profile.JobTitle,
		Company:     profile.Company,
		Department:  profile.Department,
		Location:    profile.Location,
		Timezone:    profile.Timezone,
		Locale:      profile.Locale,
		AvatarURL:   profile.AvatarURL,
		OrgID:       profile.Scope.OrgID,
		CreatedAt:   profile.CreatedAt,
		CreatedBy:   profile.CreatedBy,
		UpdatedAt:   profile.UpdatedAt,
		UpdatedBy:   profile.UpdatedBy,
	}
}

func toDomain(rec *Record) *types.Profile {
	if rec == nil {
		return nil
	}
	return &types.Profile{
		UserID:      rec.UserID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		DisplayName: rec.DisplayName,
		Bio:         rec.Bio,
		Phone:       rec.Phone,
		Website:     rec.Website,
		JobTitle:    rec.JobTitle,
		Company:     rec.Company,
		Department:  rec.Department,
		Location:    rec.Location,
		Timezone:    rec.Timezone,
		Locale:      rec.Locale,
		AvatarURL:   rec.AvatarURL,
		Scope:       types.ScopeFilter{OrgID: rec.OrgID},
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		CreatedBy:   rec.CreatedBy,
		UpdatedBy:   rec.UpdatedBy,
	}
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

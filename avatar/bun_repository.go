package avatar

import (
	"context"
	"errors"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed avatar metadata repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type avatarStore interface {
	repository.Repository[*Record]
}

// Repository implements types.AvatarRepository.
type Repository struct {
	avatarStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default avatar repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("avatar: db or repository required")
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
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		avatarStore: repo,
		clock:       clock,
		idGen:       idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.AvatarRepository         = (*Repository)(nil)
)

// InsertAvatar stores a new avatar metadata row.
func (r *Repository) InsertAvatar(ctx context.Context, avatar types.Avatar) (*types.Avatar, error) {
	if avatar.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec := fromDomain(avatar)
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock.Now()
	}
	created, err := r.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// GetAvatar returns a single avatar scoped to the owning user.
func (r *Repository) GetAvatar(ctx context.Context, avatarID, userID uuid.UUID) (*types.Avatar, error) {
	rec, err := r.findOwned(ctx, avatarID, userID)
	if err != nil {
		return nil, err
	}
	return toDomain(rec), nil
}

// ListAvatars returns the user's upload history, newest first.
func (r *Repository) ListAvatars(ctx context.Context, userID uuid.UUID) ([]types.Avatar, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).OrderExpr("created_at DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Avatar, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomain(row))
	}
	return out, nil
}

// ActiveAvatar returns the currently active avatar for the user.
func (r *Repository) ActiveAvatar(ctx context.Context, userID uuid.UUID) (*types.Avatar, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("is_active = ?", true).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrAvatarNotFound
	}
	return toDomain(rows[0]), nil
}

// ActivateAvatar deactivates the user's other avatars and activates the
// target. The two writes are sequential, so a reader between them can observe
// no active avatar; the final state always has exactly one.
func (r *Repository) ActivateAvatar(ctx context.Context, avatarID, userID uuid.UUID) (*types.Avatar, error) {
	target, err := r.findOwned(ctx, avatarID, userID)
	if err != nil {
		return nil, err
	}

	active, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("is_active = ?", true)
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range active {
		if rec.ID == target.ID {
			continue
		}
		rec.IsActive = false
		if _, err := r.Update(ctx, rec); err != nil {
			return nil, err
		}
	}

	target.IsActive = true
	updated, err := r.Update(ctx, target)
	if err != nil {
		return nil, err
	}
	return toDomain(updated), nil
}

// DeleteAvatar removes the avatar row scoped to the owning user.
func (r *Repository) DeleteAvatar(ctx context.Context, avatarID, userID uuid.UUID) error {
	rec, err := r.findOwned(ctx, avatarID, userID)
	if err != nil {
		return err
	}
	return r.Delete(ctx, rec)
}

func (r *Repository) findOwned(ctx context.Context, avatarID, userID uuid.UUID) (*Record, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if avatarID == uuid.Nil {
		return nil, types.ErrAvatarNotFound
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", avatarID).Where("user_id = ?", userID).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrAvatarNotFound
	}
	return rows[0], nil
}

func fromDomain(avatar types.Avatar) *Record {
	return &Record{
		ID:          avatar.ID,
		UserID:      avatar.UserID,
		StoragePath: avatar.StoragePath,
		Bucket:      avatar.Bucket,
		PublicURL:   avatar.PublicURL,
		SizeBytes:   avatar.SizeBytes,
		MimeType:    avatar.MimeType,
		Width:       avatar.Width,
		Height:      avatar.Height,
		Variants:    cloneVariants(avatar.Variants),
		ContentHash: avatar.ContentHash,
		IsActive:    avatar.IsActive,
		IsApproved:  avatar.IsApproved,
		OrgID:       avatar.Scope.OrgID,
		CreatedAt:   avatar.CreatedAt,
	}
}

func toDomain(rec *Record) *types.Avatar {
	if rec == nil {
		return nil
	}
	return &types.Avatar{
		ID:          rec.ID,
		UserID:      rec.UserID,
		StoragePath: rec.StoragePath,
		Bucket:      rec.Bucket,
		PublicURL:   rec.PublicURL,
		SizeBytes:   rec.SizeBytes,
		MimeType:    rec.MimeType,
		Width:       rec.Width,
		Height:      rec.Height,
		Variants:    cloneVariants(rec.Variants),
		ContentHash: rec.ContentHash,
		IsActive:    rec.IsActive,
		IsApproved:  rec.IsApproved,
		Scope:       types.ScopeFilter{OrgID: rec.OrgID},
		CreatedAt:   rec.CreatedAt,
	}
}

func cloneVariants(origin map[string]string) map[string]string {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]string, len(origin))
	for k, v := range origin {
		out[k] = v
	}
	return out
}

// Package tokens persists the single-use download tokens that back signed
// data export links.
package tokens

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed export token repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

// Repository issues and consumes export download tokens using Bun.
type Repository struct {
	store repository.Repository[*Record]
	clock types.Clock
	db    *bun.DB
}

// NewRepository constructs the default export token repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("tokens: db or repository required")
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
	db := cfg.DB
	if db == nil {
		if withDB, ok := repo.(interface{ DB() *bun.DB }); ok {
			db = withDB.DB()
		}
	}
	return &Repository{store: repo, clock: clock, db: db}, nil
}

// Issue persists a token for a freshly generated export bundle.
func (r *Repository) Issue(ctx context.Context, token ExportToken) (*ExportToken, error) {
	if token.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if strings.TrimSpace(token.JTI) == "" {
		return nil, errors.New("tokens: jti required")
	}
	rec := fromDomain(token)
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := r.clock.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.IssuedAt == nil {
		rec.IssuedAt = timePtr(now)
	}
	if strings.TrimSpace(rec.Status) == "" {
		rec.Status = string(StatusIssued)
	}
	created, err := r.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// GetByJTI returns the token matching the signed link claim, or nil when no
// token was issued for it.
func (r *Repository) GetByJTI(ctx context.Context, jti string) (*ExportToken, error) {
	rec, err := r.store.Get(ctx, selectToken(jti))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// Consume marks an issued token as used. The update only matches unexpired,
// unused tokens so a replayed download link fails with a count mismatch.
func (r *Repository) Consume(ctx context.Context, jti string) error {
	if r == nil || r.db == nil {
		return errors.New("tokens: db required for updates")
	}
	normalized := strings.TrimSpace(jti)
	if normalized == "" {
		return errors.New("tokens: jti required")
	}
	now := r.clock.Now()
	rec := &Record{
		Status:    string(StatusUsed),
		UsedAt:    timePtr(now),
		UpdatedAt: now,
	}
	res, err := r.db.NewUpdate().Model(rec).
		Column("status", "used_at", "updated_at").
		Where("jti = ?", normalized).
		Where("status = ?", string(StatusIssued)).
		Where("used_at IS NULL").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return repository.MapDatabaseError(err, repository.DetectDriver(r.db))
	}
	return repository.SQLExpectedCount(res, 1)
}

// RevokeForUser invalidates every outstanding token for the user. Account
// deletion calls this so stale export links stop working immediately.
func (r *Repository) RevokeForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("tokens: db required for updates")
	}
	if userID == uuid.Nil {
		return 0, types.ErrUserIDRequired
	}
	now := r.clock.Now()
	rec := &Record{
		Status:    string(StatusRevoked),
		UpdatedAt: now,
	}
	res, err := r.db.NewUpdate().Model(rec).
		Column("status", "updated_at").
		Where("user_id = ?", userID).
		Where("status = ?", string(StatusIssued)).
		Exec(ctx)
	if err != nil {
		return 0, repository.MapDatabaseError(err, repository.DetectDriver(r.db))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

func selectToken(jti string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("jti = ?", strings.TrimSpace(jti))
	}
}

func fromDomain(token ExportToken) *Record {
	return &Record{
		ID:        token.ID,
		UserID:    token.UserID,
		JTI:       token.JTI,
		ObjectKey: token.ObjectKey,
		Status:    string(token.Status),
		OrgID:     token.OrgID,
		IssuedAt:  timePtr(token.IssuedAt),
		ExpiresAt: timePtr(token.ExpiresAt),
		UsedAt:    timePtr(token.UsedAt),
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	}
}

func toDomain(rec *Record) *ExportToken {
	if rec == nil {
		return nil
	}
	return &ExportToken{
		ID:        rec.ID,
		UserID:    rec.UserID,
		JTI:       rec.JTI,
		ObjectKey: rec.ObjectKey,
		Status:    Status(rec.Status),
		OrgID:     rec.OrgID,
		IssuedAt:  timeFromPtr(rec.IssuedAt),
		ExpiresAt: timeFromPtr(rec.ExpiresAt),
		UsedAt:    timeFromPtr(rec.UsedAt),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func timePtr(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	copy := value
	return &copy
}

func timeFromPtr(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}

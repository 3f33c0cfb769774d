package membership

import (
	"context"
	"errors"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the read-only membership repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
}

// Repository implements types.MembershipRepository over the host-owned
// organization_memberships table.
type Repository struct {
	store repository.Repository[*Record]
}

// NewRepository constructs the default membership repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("membership: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		// composite primary key, so the uuid handlers are inert
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(*Record) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*Record, uuid.UUID) {},
		})
	}
	return &Repository{store: repo}, nil
}

var _ types.MembershipRepository = (*Repository)(nil)

// GetMembership returns the membership linking the user to the organization.
func (r *Repository) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*types.Membership, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if orgID == uuid.Nil {
		return nil, types.ErrOrgIDRequired
	}
	rows, _, err := r.store.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("organization_id = ?", orgID).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toDomain(rows[0]), nil
}

// ListMemberships returns every organization the user belongs to.
func (r *Repository) ListMemberships(ctx context.Context, userID uuid.UUID) ([]types.Membership, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.store.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).OrderExpr("joined_at ASC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomain(row))
	}
	return out, nil
}

func toDomain(rec *Record) *types.Membership {
	if rec == nil {
		return nil
	}
	perms := make([]string, len(rec.Permissions))
	copy(perms, rec.Permissions)
	return &types.Membership{
		UserID:      rec.UserID,
		OrgID:       rec.OrganizationID,
		Role:        rec.Role,
		Permissions: perms,
		JoinedAt:    rec.JoinedAt,
	}
}

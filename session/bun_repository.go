package session

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-accounts/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed session repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type sessionStore interface {
	repository.Repository[*Record]
}

// Repository implements types.SessionRepository.
type Repository struct {
	sessionStore
	db    *bun.DB
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default session repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("session: db or repository required")
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
		sessionStore: repo,
		db:           cfg.DB,
		clock:        clock,
		idGen:        idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.SessionRepository        = (*Repository)(nil)
)

// InsertSession records a new device login.
func (r *Repository) InsertSession(ctx context.Context, session types.Session) (*types.Session, error) {
	if session.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec := fromDomain(session)
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	now := r.clock.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastSeenAt.IsZero() {
		rec.LastSeenAt = now
	}
	created, err := r.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toDomain(created), nil
}

// ListSessions returns every session for the user, active first, newest first.
func (r *Repository) ListSessions(ctx context.Context, userID uuid.UUID) ([]types.Session, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).
			OrderExpr("revoked_at IS NOT NULL ASC, last_seen_at DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomain(row))
	}
	return out, nil
}

// GetSession returns a single session scoped by both session and user id.
func (r *Repository) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*types.Session, error) {
	rec, err := r.findOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return toDomain(rec), nil
}

// RevokeSession stamps revoked_at on the session. The predicate matches both
// session and user id; that scoping is the authorization check on this path.
// Returns false without error when the session was already revoked.
func (r *Repository) RevokeSession(ctx context.Context, sessionID, userID uuid.UUID, reason string) (bool, error) {
	rec, err := r.findOwned(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	if rec.RevokedAt != nil {
		return false, nil
	}
	now := r.clock.Now()
	rec.RevokedAt = &now
	rec.RevokedReason = reason
	rec.IsCurrent = false
	if _, err := r.Update(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeAllSessions revokes every active session for the user and returns how
// many were affected.
func (r *Repository) RevokeAllSessions(ctx context.Context, userID uuid.UUID, reason string) (int, error) {
	if userID == uuid.Nil {
		return 0, types.ErrUserIDRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("revoked_at IS NULL")
	})
	if err != nil {
		return 0, err
	}
	now := r.clock.Now()
	revoked := 0
	for _, rec := range rows {
		rec.RevokedAt = &now
		rec.RevokedReason = reason
		rec.IsCurrent = false
		if _, err := r.Update(ctx, rec); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// DeviceSummary aggregates active sessions per device type.
func (r *Repository) DeviceSummary(ctx context.Context, userID uuid.UUID) ([]types.DeviceSummary, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if r.db == nil {
		return nil, errors.New("session: device summary requires bun DB")
	}
	type row struct {
		DeviceType string    `bun:"device_type"`
		Sessions   int       `bun:"sessions"`
		LastSeenAt time.Time `bun:"last_seen_at"`
	}
	var rows []row
	err := r.db.NewSelect().
		Table("user_sessions").
		ColumnExpr("device_type").
		ColumnExpr("COUNT(*) AS sessions").
		ColumnExpr("MAX(last_seen_at) AS last_seen_at").
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Group("device_type").
		OrderExpr("sessions DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]types.DeviceSummary, 0, len(rows))
	for _, rec := range rows {
		out = append(out, types.DeviceSummary{
			DeviceType: rec.DeviceType,
			Sessions:   rec.Sessions,
			LastSeenAt: rec.LastSeenAt,
		})
	}
	return out, nil
}

func (r *Repository) findOwned(ctx context.Context, sessionID, userID uuid.UUID) (*Record, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if sessionID == uuid.Nil {
		return nil, types.ErrSessionNotFound
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", sessionID).Where("user_id = ?", userID).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrSessionNotFound
	}
	return rows[0], nil
}

func fromDomain(session types.Session) *Record {
	return &Record{
		ID:            session.ID,
		UserID:        session.UserID,
		DeviceType:    session.DeviceType,
		DeviceName:    session.DeviceName,
		Browser:       session.Browser,
		OS:            session.OS,
		IPAddress:     session.IPAddress,
		Location:      session.Location,
		IsCurrent:     session.IsCurrent,
		IsTrusted:     session.IsTrusted,
		LastSeenAt:    session.LastSeenAt,
		CreatedAt:     session.CreatedAt,
		RevokedAt:     session.RevokedAt,
		RevokedReason: session.RevokedReason,
	}
}

func toDomain(rec *Record) *types.Session {
	if rec == nil {
		return nil
	}
	return &types.Session{
		ID:            rec.ID,
		UserID:        rec.UserID,
		DeviceType:    rec.DeviceType,
		DeviceName:    rec.DeviceName,
		Browser:       rec.Browser,
		OS:            rec.OS,
		IPAddress:     rec.IPAddress,
		Location:      rec.Location,
		IsCurrent:     rec.IsCurrent,
		IsTrusted:     rec.IsTrusted,
		LastSeenAt:    rec.LastSeenAt,
		CreatedAt:     rec.CreatedAt,
		RevokedAt:     rec.RevokedAt,
		RevokedReason: rec.RevokedReason,
	}
}

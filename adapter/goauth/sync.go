package goauth

import (
	"context"
	"errors"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/authctx"
	"github.com/goliatone/go-accounts/pkg/types"
	auth "github.com/goliatone/go-auth"
	"github.com/google/uuid"
)

// SyncerConfig wires the repositories the go-auth bridge writes into.
type SyncerConfig struct {
	Profiles types.ProfileRepository
	Sessions types.SessionRepository
	Sink     types.ActivitySink
	Clock    types.Clock
	Logger   types.Logger
}

// Syncer bridges go-auth signup/login flows into account records: it seeds
// profile rows for newly provisioned users and tracks device sessions plus
// login audit entries when tokens are issued.
type Syncer struct {
	profiles types.ProfileRepository
	sessions types.SessionRepository
	sink     types.ActivitySink
	clock    types.Clock
	logger   types.Logger
}

// NewSyncer constructs the bridge.
func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Profiles == nil && cfg.Sessions == nil {
		return nil, errors.New("go-accounts: goauth syncer needs a profile or session repository")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Syncer{
		profiles: cfg.Profiles,
		sessions: cfg.Sessions,
		sink:     cfg.Sink,
		clock:    clock,
		logger:   logger,
	}, nil
}

// SeedProfile upserts a profile row derived from the go-auth user record.
// Existing profile fields win; only blank fields are filled from the auth row
// so account edits are never clobbered by a later login.
func (s *Syncer) SeedProfile(ctx context.Context, user *auth.User, scope types.ScopeFilter) (*types.Profile, error) {
	if s.profiles == nil {
		return nil, types.ErrMissingProfileRepository
	}
	if user == nil || user.ID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	seed := ProfileFromUser(user)
	seed.Scope = scope

	existing, err := s.profiles.GetProfile(ctx, user.ID, scope)
	if err != nil && !errors.Is(err, types.ErrProfileNotFound) {
		return nil, err
	}
	if existing != nil {
		seed = mergeProfileSeed(*existing, seed)
	}
	return s.profiles.UpsertProfile(ctx, seed)
}

// LoginInput describes one successful token issuance.
type LoginInput struct {
	UserID     uuid.UUID
	DeviceType string
	DeviceName string
	Browser    string
	OS         string
	IPAddress  string
	Location   string
	Scope      types.ScopeFilter
}

// RecordLogin inserts a session row for the device and appends a login audit
// record. Activity failures are logged, not returned; the session row is the
// authoritative side effect.
func (s *Syncer) RecordLogin(ctx context.Context, input LoginInput) (*types.Session, error) {
	if s.sessions == nil {
		return nil, types.ErrMissingSessionRepository
	}
	if input.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	now := s.clock.Now()
	session, err := s.sessions.InsertSession(ctx, types.Session{
		UserID:     input.UserID,
		DeviceType: input.DeviceType,
		DeviceName: input.DeviceName,
		Browser:    input.Browser,
		OS:         input.OS,
		IPAddress:  input.IPAddress,
		Location:   input.Location,
		LastSeenAt: now,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	if s.sink != nil {
		record := types.ActivityRecord{
			UserID:     input.UserID,
			ActorID:    input.UserID,
			Action:     activity.ActionLogin,
			Status:     types.ActivityStatusSuccess,
			IPAddress:  input.IPAddress,
			DeviceType: input.DeviceType,
			OrgID:      input.Scope.OrgID,
			OccurredAt: now,
		}
		if err := s.sink.Log(ctx, record); err != nil {
			s.logger.Error("goauth login activity failed", err, "user_id", input.UserID.String())
		}
	}
	return session, nil
}

// LoginFromContext derives the login input from go-auth actor metadata stored
// on the request context, letting hosts call RecordLogin straight from an
// auth success handler.
func (s *Syncer) LoginFromContext(ctx context.Context, input LoginInput) (*types.Session, error) {
	if input.UserID == uuid.Nil {
		ref, actorCtx, err := authctx.ResolveActor(ctx)
		if err != nil {
			return nil, err
		}
		input.UserID = ref.ID
		if input.Scope.OrgID == uuid.Nil {
			input.Scope = authctx.ScopeFromActorContext(actorCtx)
		}
	}
	return s.RecordLogin(ctx, input)
}

func mergeProfileSeed(existing, seed types.Profile) types.Profile {
	merged := existing
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&merged.FirstName, seed.FirstName)
	fill(&merged.LastName, seed.LastName)
	fill(&merged.DisplayName, seed.DisplayName)
	fill(&merged.Phone, seed.Phone)
	fill(&merged.Website, seed.Website)
	fill(&merged.JobTitle, seed.JobTitle)
	fill(&merged.Company, seed.Company)
	fill(&merged.Location, seed.Location)
	fill(&merged.Timezone, seed.Timezone)
	fill(&merged.Locale, seed.Locale)
	return merged
}

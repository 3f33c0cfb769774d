package command

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ExportTokenRevoker invalidates outstanding export download tokens so links
// issued before the deletion stop working.
type ExportTokenRevoker interface {
	RevokeForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// AccountDeleteConfig wires every store the deletion cascade touches.
type AccountDeleteConfig struct {
	Profiles     types.ProfileRepository
	Preferences  types.PreferenceRepository
	Avatars      types.AvatarRepository
	Sessions     types.SessionRepository
	Store        types.ObjectStore
	ExportTokens ExportTokenRevoker
	Hooks        types.Hooks
	Clock        types.Clock
	Logger       types.Logger
	Activity     types.ActivitySink
	ScopeGuard   scope.Guard
}

// AccountDeleteInput requests removal of every account record for a user.
type AccountDeleteInput struct {
	UserID    uuid.UUID
	Reason    string
	Confirmed bool
	Scope     types.ScopeFilter
	Actor     types.ActorRef
	// SessionsRevoked receives the number of sessions revoked by the cascade.
	SessionsRevoked *int
}

// Type implements gocommand.Message.
func (AccountDeleteInput) Type() string {
	return "command.account.delete"
}

// Validate implements gocommand.Message.
func (input AccountDeleteInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if !input.Confirmed {
		return ErrDeleteNotConfirmed
	}
	return nil
}

// AccountDeleteCommand runs the deletion cascade: sessions are revoked,
// avatars and their stored objects removed, preferences and the profile
// deleted. Activity rows are kept so the audit trail records the deletion
// itself.
type AccountDeleteCommand struct {
	profiles     types.ProfileRepository
	prefs        types.PreferenceRepository
	avatars      types.AvatarRepository
	sessions     types.SessionRepository
	store        types.ObjectStore
	exportTokens ExportTokenRevoker
	hooks        types.Hooks
	clock        types.Clock
	logger       types.Logger
	sink         types.ActivitySink
	guard        scope.Guard
}

// NewAccountDeleteCommand constructs the account deletion handler.
func NewAccountDeleteCommand(cfg AccountDeleteConfig) *AccountDeleteCommand {
	return &AccountDeleteCommand{
		profiles:     cfg.Profiles,
		prefs:        cfg.Preferences,
		avatars:      cfg.Avatars,
		sessions:     cfg.Sessions,
		store:        cfg.Store,
		exportTokens: cfg.ExportTokens,
		hooks:        safeHooks(cfg.Hooks),
		clock:        safeClock(cfg.Clock),
		logger:       safeLogger(cfg.Logger),
		sink:         safeActivitySink(cfg.Activity),
		guard:        safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[AccountDeleteInput] = (*AccountDeleteCommand)(nil)

// Execute runs each cascade step in order and stops on the first storage
// error so a partial delete is visible to the caller rather than hidden.
func (c *AccountDeleteCommand) Execute(ctx context.Context, input AccountDeleteInput) error {
	if c.profiles == nil {
		return types.ErrMissingProfileRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionAccountDelete, input.UserID)
	if err != nil {
		return err
	}

	if c.sessions != nil {
		count, err := c.sessions.RevokeAllSessions(ctx, input.UserID, input.Reason)
		if err != nil {
			return err
		}
		if input.SessionsRevoked != nil {
			*input.SessionsRevoked = count
		}
	}

	if c.avatars != nil {
		uploads, err := c.avatars.ListAvatars(ctx, input.UserID)
		if err != nil {
			return err
		}
		for _, upload := range uploads {
			if err := c.avatars.DeleteAvatar(ctx, upload.ID, input.UserID); err != nil {
				return err
			}
			if c.store != nil {
				deleteAvatarObjects(ctx, c.store, c.logger, upload)
			}
		}
	}

	if c.exportTokens != nil {
		if _, err := c.exportTokens.RevokeForUser(ctx, input.UserID); err != nil {
			c.logger.Error("account delete failed to revoke export tokens", err)
		}
	}

	if c.prefs != nil {
		if err := c.prefs.DeletePreferences(ctx, input.UserID); err != nil {
			return err
		}
	}
	if err := c.profiles.DeleteProfile(ctx, input.UserID); err != nil {
		return err
	}

	record := types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAccountDeleted,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"reason": input.Reason},
		OccurredAt: now(c.clock),
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	return nil
}

package command

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// AvatarActivateInput selects a previously uploaded avatar as the active one.
type AvatarActivateInput struct {
	UserID   uuid.UUID
	AvatarID uuid.UUID
	Scope    types.ScopeFilter
	Actor    types.ActorRef
	Result   *types.Avatar
}

// Type implements gocommand.Message.
func (AvatarActivateInput) Type() string {
	return "command.avatar.activate"
}

// Validate implements gocommand.Message.
func (input AvatarActivateInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.AvatarID == uuid.Nil {
		return ErrAvatarIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// AvatarActivateCommand switches the active avatar from upload history and
// keeps the profile's avatar URL mirror in sync.
type AvatarActivateCommand struct {
	repo     types.AvatarRepository
	profiles types.ProfileRepository
	hooks    types.Hooks
	clock    types.Clock
	sink     types.ActivitySink
	guard    scope.Guard
}

// NewAvatarActivateCommand constructs the activation handler.
func NewAvatarActivateCommand(cfg AvatarCommandConfig) *AvatarActivateCommand {
	return &AvatarActivateCommand{
		repo:     cfg.Repository,
		profiles: cfg.Profiles,
		hooks:    safeHooks(cfg.Hooks),
		clock:    safeClock(cfg.Clock),
		sink:     safeActivitySink(cfg.Activity),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[AvatarActivateInput] = (*AvatarActivateCommand)(nil)

// Execute activates the avatar and mirrors its URL onto the profile.
func (c *AvatarActivateCommand) Execute(ctx context.Context, input AvatarActivateInput) error {
	if c.repo == nil {
		return types.ErrMissingAvatarRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionAvatarsWrite, input.UserID)
	if err != nil {
		return err
	}

	activated, err := c.repo.ActivateAvatar(ctx, input.AvatarID, input.UserID)
	if err != nil {
		return err
	}
	if c.profiles != nil {
		if err := c.profiles.SetAvatarURL(ctx, input.UserID, activated.PublicURL); err != nil {
			return err
		}
	}
	if input.Result != nil {
		*input.Result = *activated
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarActivated,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"avatar_id": activated.ID.String()},
		OccurredAt: now(c.clock),
	})
	emitAvatarHook(ctx, c.hooks, types.AvatarEvent{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarActivated,
		Avatar:     *activated,
		OccurredAt: now(c.clock),
	})
	return nil
}

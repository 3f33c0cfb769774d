package command

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// AvatarDeleteInput removes one avatar from the user's upload history.
type AvatarDeleteInput struct {
	UserID   uuid.UUID
	AvatarID uuid.UUID
	Scope    types.ScopeFilter
	Actor    types.ActorRef
}

// Type implements gocommand.Message.
func (AvatarDeleteInput) Type() string {
	return "command.avatar.delete"
}

// Validate implements gocommand.Message.
func (input AvatarDeleteInput) Validate() error {
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

// AvatarDeleteCommand removes the metadata row and the stored objects. The
// row delete is authoritative; object deletes are best effort and failures
// are logged instead of failing the command.
type AvatarDeleteCommand struct {
	repo     types.AvatarRepository
	profiles types.ProfileRepository
	store    types.ObjectStore
	hooks    types.Hooks
	clock    types.Clock
	logger   types.Logger
	sink     types.ActivitySink
	guard    scope.Guard
}

// NewAvatarDeleteCommand constructs the delete handler.
func NewAvatarDeleteCommand(cfg AvatarCommandConfig) *AvatarDeleteCommand {
	return &AvatarDeleteCommand{
		repo:     cfg.Repository,
		profiles: cfg.Profiles,
		store:    cfg.Store,
		hooks:    safeHooks(cfg.Hooks),
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
		sink:     safeActivitySink(cfg.Activity),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[AvatarDeleteInput] = (*AvatarDeleteCommand)(nil)

// Execute deletes the avatar. When the deleted avatar was active, the profile
// avatar URL mirror is cleared so dashboards stop serving the dead link.
func (c *AvatarDeleteCommand) Execute(ctx context.Context, input AvatarDeleteInput) error {
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

	target, err := c.repo.GetAvatar(ctx, input.AvatarID, input.UserID)
	if err != nil {
		return err
	}
	if err := c.repo.DeleteAvatar(ctx, input.AvatarID, input.UserID); err != nil {
		return err
	}

	if c.store != nil {
		deleteAvatarObjects(ctx, c.store, c.logger, *target)
	}
	if target.IsActive && c.profiles != nil {
		if err := c.profiles.SetAvatarURL(ctx, input.UserID, ""); err != nil {
			return err
		}
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarDeleted,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"avatar_id": target.ID.String()},
		OccurredAt: now(c.clock),
	})
	emitAvatarHook(ctx, c.hooks, types.AvatarEvent{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionAvatarDeleted,
		Avatar:     *target,
		OccurredAt: now(c.clock),
	})
	return nil
}

func deleteAvatarObjects(ctx context.Context, store types.ObjectStore, logger types.Logger, target types.Avatar) {
	paths := []string{target.StoragePath}
	for name := range target.Variants {
		paths = append(paths, avatarObjectPath(target.UserID, target.ID, name))
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := store.Delete(ctx, path); err != nil {
			logger.Error("avatar object delete failed", err, "path", path)
		}
	}
}

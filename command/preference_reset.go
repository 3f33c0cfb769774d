package command

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/preferences"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PreferenceResetInput requests a reset of the user's preferences back to the
// mode defaults.
type PreferenceResetInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
	Result *types.Preferences
}

// Type implements gocommand.Message.
func (PreferenceResetInput) Type() string {
	return "command.preferences.reset"
}

// Validate implements gocommand.Message.
func (input PreferenceResetInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// PreferenceResetCommand drops the stored row and rebuilds mode defaults.
// Organization context stored on the row is discarded together with the rest.
type PreferenceResetCommand struct {
	repo  types.PreferenceRepository
	mode  types.TenancyMode
	hooks types.Hooks
	clock types.Clock
	sink  types.ActivitySink
	guard scope.Guard
}

// NewPreferenceResetCommand constructs the reset handler.
func NewPreferenceResetCommand(cfg PreferenceCommandConfig) *PreferenceResetCommand {
	return &PreferenceResetCommand{
		repo:  cfg.Repository,
		mode:  cfg.Mode,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		sink:  safeActivitySink(cfg.Activity),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[PreferenceResetInput] = (*PreferenceResetCommand)(nil)

// Execute deletes the stored preferences and recreates the defaults.
func (c *PreferenceResetCommand) Execute(ctx context.Context, input PreferenceResetInput) error {
	if c.repo == nil {
		return types.ErrMissingPreferenceRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPreferencesWrite, input.UserID)
	if err != nil {
		return err
	}

	if err := c.repo.DeletePreferences(ctx, input.UserID); err != nil {
		return err
	}
	fresh, err := c.repo.LoadOrCreate(ctx, preferences.Defaults(input.UserID, c.mode))
	if err != nil {
		return err
	}
	if input.Result != nil && fresh != nil {
		*input.Result = *fresh
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionPrefsReset,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		OccurredAt: now(c.clock),
	})
	if fresh != nil {
		emitPreferenceHook(ctx, c.hooks, types.PreferenceEvent{
			UserID:      input.UserID,
			ActorID:     input.Actor.ID,
			OccurredAt:  now(c.clock),
			Preferences: *fresh,
		})
	}
	return nil
}

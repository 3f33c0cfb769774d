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

// PreferenceCommandConfig wires dependencies for preference commands.
type PreferenceCommandConfig struct {
	Repository types.PreferenceRepository
	Mode       types.TenancyMode
	Hooks      types.Hooks
	Clock      types.Clock
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
}

// PreferenceUpdateInput captures a partial preference update.
type PreferenceUpdateInput struct {
	UserID uuid.UUID
	Patch  types.PreferencePatch
	Scope  types.ScopeFilter
	Actor  types.ActorRef
	Result *types.Preferences
}

// Type implements gocommand.Message.
func (PreferenceUpdateInput) Type() string {
	return "command.preferences.update"
}

// Validate implements gocommand.Message.
func (input PreferenceUpdateInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if input.Patch.Theme != nil {
		switch *input.Patch.Theme {
		case types.ThemeLight, types.ThemeDark, types.ThemeSystem:
		default:
			return ErrInvalidTheme
		}
	}
	return nil
}

// PreferenceUpdateCommand applies preference patches, creating the default
// row first when the user has never saved preferences.
type PreferenceUpdateCommand struct {
	repo  types.PreferenceRepository
	mode  types.TenancyMode
	hooks types.Hooks
	clock types.Clock
	sink  types.ActivitySink
	guard scope.Guard
}

// NewPreferenceUpdateCommand constructs the preference update handler.
func NewPreferenceUpdateCommand(cfg PreferenceCommandConfig) *PreferenceUpdateCommand {
	return &PreferenceUpdateCommand{
		repo:  cfg.Repository,
		mode:  cfg.Mode,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		sink:  safeActivitySink(cfg.Activity),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[PreferenceUpdateInput] = (*PreferenceUpdateCommand)(nil)

// Execute applies the patch on top of the stored (or freshly defaulted) row.
func (c *PreferenceUpdateCommand) Execute(ctx context.Context, input PreferenceUpdateInput) error {
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

	before, err := c.repo.LoadOrCreate(ctx, preferences.Defaults(input.UserID, c.mode))
	if err != nil {
		return err
	}
	themeChanged := input.Patch.Theme != nil && before != nil && before.Theme != *input.Patch.Theme

	updated, err := c.repo.UpdatePreferences(ctx, input.UserID, input.Patch)
	if err != nil {
		return err
	}
	if input.Result != nil && updated != nil {
		*input.Result = *updated
	}

	action := activity.ActionPrefsUpdated
	if themeChanged {
		action = activity.ActionThemeChanged
	}
	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     action,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		OccurredAt: now(c.clock),
	})
	if updated != nil {
		emitPreferenceHook(ctx, c.hooks, types.PreferenceEvent{
			UserID:      input.UserID,
			ActorID:     input.Actor.ID,
			OccurredAt:  now(c.clock),
			Preferences: *updated,
			ThemeChange: themeChanged,
		})
		if themeChanged {
			emitThemeHook(ctx, c.hooks, types.ThemeEvent{
				UserID:     input.UserID,
				Theme:      updated.Theme,
				OccurredAt: now(c.clock),
			})
		}
	}
	return nil
}

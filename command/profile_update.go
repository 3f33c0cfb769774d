package command

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ProfileCommandConfig wires dependencies for profile commands.
type ProfileCommandConfig struct {
	Repository  types.ProfileRepository
	Preferences types.PreferenceRepository
	Mode        types.TenancyMode
	Hooks       types.Hooks
	Clock       types.Clock
	Activity    types.ActivitySink
	ScopeGuard  scope.Guard
}

// ProfileUpdateInput captures a profile patch request. OrgFields carries
// organization-specific extension fields merged into the preference row's
// organization context instead of the shared profile columns.
type ProfileUpdateInput struct {
	UserID    uuid.UUID
	Patch     types.ProfilePatch
	OrgFields map[string]any
	Scope     types.ScopeFilter
	Actor     types.ActorRef
	Result    *types.Profile
}

// Type implements gocommand.Message.
func (ProfileUpdateInput) Type() string {
	return "command.profile.update"
}

// Validate implements gocommand.Message.
func (input ProfileUpdateInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	if input.Patch.IsEmpty() && len(input.OrgFields) == 0 {
		return ErrEmptyPatch
	}
	return nil
}

// ProfileUpdateCommand applies allow-listed profile patches for a user.
type ProfileUpdateCommand struct {
	repo  types.ProfileRepository
	prefs types.PreferenceRepository
	mode  types.TenancyMode
	hooks types.Hooks
	clock types.Clock
	sink  types.ActivitySink
	guard scope.Guard
}

// NewProfileUpdateCommand constructs the profile update handler.
func NewProfileUpdateCommand(cfg ProfileCommandConfig) *ProfileUpdateCommand {
	return &ProfileUpdateCommand{
		repo:  cfg.Repository,
		prefs: cfg.Preferences,
		mode:  cfg.Mode,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		sink:  safeActivitySink(cfg.Activity),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ProfileUpdateInput] = (*ProfileUpdateCommand)(nil)

// Execute applies the supplied patch creating the profile when necessary.
// Writes are last-write-wins at field granularity; concurrent updates to the
// same field resolve to whichever commit lands last.
func (c *ProfileUpdateCommand) Execute(ctx context.Context, input ProfileUpdateInput) error {
	if c.repo == nil {
		return types.ErrMissingProfileRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionProfilesWrite, input.UserID)
	if err != nil {
		return err
	}

	profile := types.Profile{
		UserID: input.UserID,
		Scope:  scope,
	}
	existing, err := c.repo.GetProfile(ctx, input.UserID, scope)
	if err != nil && !errors.Is(err, types.ErrProfileNotFound) {
		return err
	}
	if existing != nil {
		profile = *existing
		profile.Scope = scope
	}
	if profile.CreatedBy == uuid.Nil {
		profile.CreatedBy = input.Actor.ID
	}
	profile.UpdatedBy = input.Actor.ID
	applyProfilePatch(&profile, input.Patch)

	updated, err := c.repo.UpsertProfile(ctx, profile)
	if err != nil {
		return err
	}
	if updated != nil {
		profile = *updated
	}

	if len(input.OrgFields) > 0 && c.mode.UsesOrganizations() && scope.OrgID != uuid.Nil {
		if c.prefs == nil {
			return types.ErrMissingPreferenceRepository
		}
		if _, err := c.prefs.MergeOrganizationContext(ctx, input.UserID, scope.OrgID, input.OrgFields); err != nil {
			return err
		}
	}

	if input.Result != nil {
		*input.Result = profile
	}

	changed := input.Patch.Fields()
	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:      input.UserID,
		ActorID:     input.Actor.ID,
		Action:      activity.ActionProfileUpdated,
		Description: "updated profile fields: " + strings.Join(changed, ", "),
		Status:      types.ActivityStatusSuccess,
		OrgID:       scope.OrgID,
		Data:        map[string]any{"fields": changed},
		OccurredAt:  now(c.clock),
	})
	emitProfileHook(ctx, c.hooks, types.ProfileEvent{
		UserID:        input.UserID,
		Scope:         scope,
		ActorID:       input.Actor.ID,
		OccurredAt:    now(c.clock),
		Profile:       profile,
		ChangedFields: changed,
	})
	return nil
}

func applyProfilePatch(profile *types.Profile, patch types.ProfilePatch) {
	if profile == nil {
		return
	}
	if patch.FirstName != nil {
		profile.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		profile.LastName = *patch.LastName
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.Phone != nil {
		profile.Phone = *patch.Phone
	}
	if patch.Website != nil {
		profile.Website = *patch.Website
	}
	if patch.JobTitle != nil {
		profile.JobTitle = *patch.JobTitle
	}
	if patch.Company != nil {
		profile.Company = *patch.Company
	}
	if patch.Department != nil {
		profile.Department = *patch.Department
	}
	if patch.Location != nil {
		profile.Location = *patch.Location
	}
	if patch.Timezone != nil {
		profile.Timezone = *patch.Timezone
	}
	if patch.Locale != nil {
		profile.Locale = *patch.Locale
	}
}

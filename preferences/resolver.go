package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-accounts/pkg/types"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

// ResolverConfig wires dependencies for the effective-settings resolver.
type ResolverConfig struct {
	Repository types.PreferenceRepository
	Mode       types.TenancyMode
	Defaults   map[string]any
}

// Resolver layers tenancy defaults, org context, and the stored user row into
// one effective settings snapshot via go-options. User values win over org
// context; org context wins over defaults.
type Resolver struct {
	repo     types.PreferenceRepository
	mode     types.TenancyMode
	defaults map[string]any
}

// ResolveInput controls which scopes participate in the resolution.
type ResolveInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
}

// Snapshot is the merged view of a user's effective settings.
type Snapshot struct {
	Effective map[string]any
	Sources   []string
}

// NewResolver constructs a preference resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("preferences: repository required")
	}
	mode := cfg.Mode
	if !mode.Valid() {
		mode = types.TenancySingle
	}
	return &Resolver{
		repo:     cfg.Repository,
		mode:     mode,
		defaults: cloneFlat(cfg.Defaults),
	}, nil
}

// Resolve builds the effective settings for a user, scoped to the supplied
// organization when one is present.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (Snapshot, error) {
	if input.UserID == uuid.Nil {
		return Snapshot{}, types.ErrUserIDRequired
	}

	systemLayer := preferencesToMap(Defaults(input.UserID, r.mode))
	for k, v := range r.defaults {
		systemLayer[k] = v
	}

	stored, err := r.repo.GetPreferences(ctx, input.UserID)
	if err != nil && !errors.Is(err, types.ErrPreferencesNotFound) {
		return Snapshot{}, err
	}

	layers := make([]opts.Layer[map[string]any], 0, 3)
	sources := make([]string, 0, 3)

	systemScope := opts.NewScope("system", opts.ScopePrioritySystem,
		opts.WithScopeLabel("System Defaults"))
	layers = append(layers, opts.NewLayer(systemScope, systemLayer,
		opts.WithSnapshotID[map[string]any](systemScope.Name)))
	sources = append(sources, "system")

	if stored != nil && r.mode.UsesOrganizations() && input.Scope.OrgID != uuid.Nil {
		if orgFields := stored.OrganizationContext[input.Scope.OrgID.String()]; len(orgFields) > 0 {
			orgScope := opts.NewScope("org", opts.ScopePriorityOrg,
				opts.WithScopeLabel("Organization"),
				opts.WithScopeMetadata(map[string]any{"org_id": input.Scope.OrgID.String()}))
			layers = append(layers, opts.NewLayer(orgScope, cloneFlat(orgFields),
				opts.WithSnapshotID[map[string]any](orgScope.Name)))
			sources = append(sources, "org")
		}
	}

	if stored != nil {
		userScope := opts.NewScope("user", opts.ScopePriorityUser,
			opts.WithScopeLabel("User"),
			opts.WithScopeMetadata(map[string]any{"user_id": input.UserID.String()}))
		layers = append(layers, opts.NewLayer(userScope, preferencesToMap(*stored),
			opts.WithSnapshotID[map[string]any](userScope.Name)))
		sources = append(sources, "user")
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return Snapshot{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Effective: cloneFlat(merged.Value),
		Sources:   sources,
	}, nil
}

func preferencesToMap(prefs types.Preferences) map[string]any {
	return map[string]any{
		"theme":  string(prefs.Theme),
		"locale": prefs.Locale,
		"notifications": map[string]any{
			"email":           prefs.Notifications.Email,
			"push":            prefs.Notifications.Push,
			"sms":             prefs.Notifications.SMS,
			"marketing":       prefs.Notifications.Marketing,
			"security_alerts": prefs.Notifications.SecurityAlerts,
			"activity_digest": prefs.Notifications.ActivityDigest,
		},
		"profile_visibility":  string(prefs.ProfileVisibility),
		"email_visibility":    string(prefs.EmailVisibility),
		"activity_visibility": string(prefs.ActivityVisibility),
		"quiet_hours": map[string]any{
			"enabled": prefs.QuietHours.Enabled,
			"start":   prefs.QuietHours.Start,
			"end":     prefs.QuietHours.End,
		},
		"accessibility": map[string]any{
			"reduce_motion": prefs.Accessibility.ReduceMotion,
			"high_contrast": prefs.Accessibility.HighContrast,
			"large_text":    prefs.Accessibility.LargeText,
		},
		"data_retention_days": prefs.DataRetentionDays,
	}
}

func cloneFlat(origin map[string]any) map[string]any {
	out := make(map[string]any, len(origin))
	for k, v := range origin {
		out[k] = v
	}
	return out
}

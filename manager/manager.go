package manager

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	textCodeUserIDRequired  = "ACCOUNTS_USER_ID_REQUIRED"
	textCodeOrgIDRequired   = "ACCOUNTS_ORG_ID_REQUIRED"
	textCodeProfileNotFound = "ACCOUNTS_PROFILE_NOT_FOUND"
	textCodeEmptyPatch      = "ACCOUNTS_EMPTY_PATCH"
	textCodeStoreFailure    = "ACCOUNTS_STORE_FAILURE"
)

// Config wires the aggregator's dependencies. Profiles is the only required
// repository; every other section of the overview degrades to absent when its
// store is not configured.
type Config struct {
	Mode        types.TenancyMode
	Profiles    types.ProfileRepository
	Preferences types.PreferenceRepository
	Avatars     types.AvatarRepository
	Sessions    types.SessionRepository
	Memberships types.MembershipRepository
	Activity    types.ActivityRepository
	Sink        types.ActivitySink
	Clock       types.Clock
	Logger      types.Logger
}

// ProfileManager aggregates per-user account state across the configured
// repositories for one tenancy mode.
type ProfileManager struct {
	mode        types.TenancyMode
	profiles    types.ProfileRepository
	preferences types.PreferenceRepository
	avatars     types.AvatarRepository
	sessions    types.SessionRepository
	memberships types.MembershipRepository
	activities  types.ActivityRepository
	sink        types.ActivitySink
	clock       types.Clock
	logger      types.Logger
}

// New constructs the manager. An invalid or empty mode falls back to the
// single-organization default, matching ParseTenancyMode.
func New(cfg Config) (*ProfileManager, error) {
	if cfg.Profiles == nil {
		return nil, types.ErrMissingProfileRepository
	}
	mode := cfg.Mode
	if !mode.Valid() {
		mode = types.TenancySingle
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &ProfileManager{
		mode:        mode,
		profiles:    cfg.Profiles,
		preferences: cfg.Preferences,
		avatars:     cfg.Avatars,
		sessions:    cfg.Sessions,
		memberships: cfg.Memberships,
		activities:  cfg.Activity,
		sink:        cfg.Sink,
		clock:       clock,
		logger:      logger,
	}, nil
}

// Mode reports the tenancy mode the manager was constructed with.
func (m *ProfileManager) Mode() types.TenancyMode {
	return m.mode
}

// Include toggles the optional overview sections.
type Include struct {
	Preferences bool
	Avatars     bool
	Sessions    bool
	Activity    bool
	Memberships bool
}

// IncludeAll enables every optional section.
func IncludeAll() Include {
	return Include{
		Preferences: true,
		Avatars:     true,
		Sessions:    true,
		Activity:    true,
		Memberships: true,
	}
}

// OverviewInput scopes one aggregation pass.
type OverviewInput struct {
	UserID        uuid.UUID
	OrgID         uuid.UUID
	Include       Include
	ActivityLimit int
}

// Overview is the aggregated dashboard payload.
type Overview struct {
	Profile      types.Profile
	Completeness int
	Preferences  *types.Preferences
	OrgContext   map[string]any
	Role         string
	Permissions  []string
	Avatars      []types.Avatar
	Sessions     []types.Session
	Devices      []types.DeviceSummary
	Activity     []types.ActivityRecord
	Memberships  []types.Membership
}

// UpdateInput carries an allow-listed profile patch plus optional org
// extension fields.
type UpdateInput struct {
	UserID    uuid.UUID
	OrgID     uuid.UUID
	Actor     types.ActorRef
	Patch     types.ProfilePatch
	OrgFields map[string]any
	Include   Include
}

// Overview assembles the account overview. The base profile row must exist;
// every optional section is attached only when requested and its repository
// is configured. Organization sections require an org id and a mode that
// carries organizations.
func (m *ProfileManager) Overview(ctx context.Context, input OverviewInput) (Overview, error) {
	if err := m.validateIDs(input.UserID, input.OrgID); err != nil {
		return Overview{}, err
	}
	scope := m.scopeFor(input.OrgID)

	profile, err := m.profiles.GetProfile(ctx, input.UserID, scope)
	if err != nil {
		if errors.Is(err, types.ErrProfileNotFound) {
			return Overview{}, goerrors.New("profile not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithTextCode(textCodeProfileNotFound)
		}
		return Overview{}, m.internal("profile lookup failed", err)
	}

	out := Overview{
		Profile:      *profile,
		Completeness: CompletenessScore(*profile),
	}

	if input.Include.Preferences && m.preferences != nil {
		prefs, err := m.preferences.GetPreferences(ctx, input.UserID)
		if err != nil && !errors.Is(err, types.ErrPreferencesNotFound) {
			return Overview{}, m.internal("preference lookup failed", err)
		}
		out.Preferences = prefs
		if prefs != nil && m.usesOrg(input.OrgID) {
			out.OrgContext = prefs.OrganizationContext[input.OrgID.String()]
		}
	}
	if input.Include.Avatars && m.avatars != nil {
		uploads, err := m.avatars.ListAvatars(ctx, input.UserID)
		if err != nil {
			return Overview{}, m.internal("avatar lookup failed", err)
		}
		out.Avatars = uploads
	}
	if input.Include.Sessions && m.sessions != nil {
		sessions, err := m.sessions.ListSessions(ctx, input.UserID)
		if err != nil {
			return Overview{}, m.internal("session lookup failed", err)
		}
		out.Sessions = sessions
		devices, err := m.sessions.DeviceSummary(ctx, input.UserID)
		if err != nil {
			return Overview{}, m.internal("device summary failed", err)
		}
		out.Devices = devices
	}
	if input.Include.Activity && m.activities != nil {
		limit := input.ActivityLimit
		if limit <= 0 {
			limit = 20
		}
		filter := types.ActivityFilter{
			UserID:     input.UserID,
			Pagination: types.Pagination{Limit: limit},
		}
		// org filter applies only when organizations exist
		if m.usesOrg(input.OrgID) {
			filter.Scope = scope
		}
		page, err := m.activities.ListActivity(ctx, filter)
		if err != nil {
			return Overview{}, m.internal("activity lookup failed", err)
		}
		out.Activity = activity.SanitizeRecords(activity.DefaultMasker(), page.Records)
	}
	if input.Include.Memberships && m.memberships != nil && m.mode.UsesOrganizations() {
		memberships, err := m.memberships.ListMemberships(ctx, input.UserID)
		if err != nil {
			return Overview{}, m.internal("membership lookup failed", err)
		}
		out.Memberships = memberships
		if m.usesOrg(input.OrgID) {
			membership, err := m.memberships.GetMembership(ctx, input.UserID, input.OrgID)
			if err != nil {
				return Overview{}, m.internal("membership lookup failed", err)
			}
			if membership != nil {
				out.Role = membership.Role
				out.Permissions = membership.Permissions
			}
		}
	}
	return out, nil
}

// Update applies the allow-listed patch, records the change, merges org
// extension fields into the preference org context when applicable, and
// returns the re-aggregated overview.
func (m *ProfileManager) Update(ctx context.Context, input UpdateInput) (Overview, error) {
	if err := m.validateIDs(input.UserID, input.OrgID); err != nil {
		return Overview{}, err
	}
	if input.Patch.IsEmpty() && len(input.OrgFields) == 0 {
		return Overview{}, goerrors.New("profile patch is empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(textCodeEmptyPatch)
	}
	scope := m.scopeFor(input.OrgID)

	profile := types.Profile{UserID: input.UserID, Scope: scope}
	existing, err := m.profiles.GetProfile(ctx, input.UserID, scope)
	if err != nil && !errors.Is(err, types.ErrProfileNotFound) {
		return Overview{}, m.internal("profile lookup failed", err)
	}
	if existing != nil {
		profile = *existing
	}
	if profile.CreatedBy == uuid.Nil {
		profile.CreatedBy = input.Actor.ID
	}
	profile.UpdatedBy = input.Actor.ID
	applyPatch(&profile, input.Patch)

	if _, err := m.profiles.UpsertProfile(ctx, profile); err != nil {
		return Overview{}, m.internal("profile write failed", err)
	}

	if len(input.OrgFields) > 0 && m.usesOrg(input.OrgID) {
		if m.preferences == nil {
			return Overview{}, m.internal("org context write failed", types.ErrMissingPreferenceRepository)
		}
		if _, err := m.preferences.MergeOrganizationContext(ctx, input.UserID, input.OrgID, input.OrgFields); err != nil {
			return Overview{}, m.internal("org context write failed", err)
		}
	}

	changed := input.Patch.Fields()
	if m.sink != nil {
		_ = m.sink.Log(ctx, types.ActivityRecord{
			UserID:      input.UserID,
			ActorID:     input.Actor.ID,
			Action:      activity.ActionProfileUpdated,
			Description: "updated profile fields: " + strings.Join(changed, ", "),
			Status:      types.ActivityStatusSuccess,
			OrgID:       scope.OrgID,
			Data:        map[string]any{"fields": changed},
			OccurredAt:  m.clock.Now(),
		})
	}

	return m.Overview(ctx, OverviewInput{
		UserID:  input.UserID,
		OrgID:   input.OrgID,
		Include: input.Include,
	})
}

// ValidateOrganizationAccess reports whether the user belongs to the
// organization. Without organizations the check short-circuits to true and
// performs no datastore query; otherwise a membership row must exist for
// exactly this user and org pair.
func (m *ProfileManager) ValidateOrganizationAccess(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	if m.mode == types.TenancyNone {
		return true, nil
	}
	if userID == uuid.Nil || orgID == uuid.Nil {
		return false, nil
	}
	if m.memberships == nil {
		return false, types.ErrMissingMembershipRepository
	}
	membership, err := m.memberships.GetMembership(ctx, userID, orgID)
	if err != nil {
		return false, m.internal("membership lookup failed", err)
	}
	return membership != nil, nil
}

func (m *ProfileManager) validateIDs(userID, orgID uuid.UUID) error {
	if userID == uuid.Nil {
		return goerrors.New("user id required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(textCodeUserIDRequired)
	}
	if m.mode.UsesOrganizations() && orgID == uuid.Nil {
		return goerrors.New("organization id required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(textCodeOrgIDRequired)
	}
	return nil
}

func (m *ProfileManager) usesOrg(orgID uuid.UUID) bool {
	return m.mode.UsesOrganizations() && orgID != uuid.Nil
}

func (m *ProfileManager) scopeFor(orgID uuid.UUID) types.ScopeFilter {
	if !m.mode.UsesOrganizations() {
		return types.ScopeFilter{}
	}
	return types.ScopeFilter{OrgID: orgID}
}

func (m *ProfileManager) internal(msg string, err error) error {
	m.logger.Error("go-accounts: "+msg, err)
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeStoreFailure)
}

// CompletenessScore reports the percentage of optional profile fields that
// are populated, used by onboarding progress widgets.
func CompletenessScore(profile types.Profile) int {
	fields := []string{
		profile.FirstName,
		profile.LastName,
		profile.DisplayName,
		profile.Bio,
		profile.Phone,
		profile.Website,
		profile.JobTitle,
		profile.Company,
		profile.Location,
		profile.Timezone,
		profile.AvatarURL,
	}
	filled := 0
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

func applyPatch(profile *types.Profile, patch types.ProfilePatch) {
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

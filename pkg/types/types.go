package types

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Theme enumerates the presentation themes a user can select.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Visibility controls who can see a profile attribute.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityOrganization Visibility = "organization"
	VisibilityPrivate      Visibility = "private"
)

// ActivityStatus marks the outcome recorded on an activity row.
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailure ActivityStatus = "failure"
	ActivityStatusPending ActivityStatus = "pending"
)

// ScopeFilter carries organization scoping applied to commands and queries.
// In TenancyNone deployments the filter stays empty and every predicate
// reduces to the user id alone.
type ScopeFilter struct {
	OrgID  uuid.UUID
	Labels map[string]uuid.UUID
}

// Clone returns a copy of the scope filter with labels detached from the
// original map reference so callers can mutate safely.
func (s ScopeFilter) Clone() ScopeFilter {
	clone := ScopeFilter{OrgID: s.OrgID}
	if len(s.Labels) > 0 {
		clone.Labels = make(map[string]uuid.UUID, len(s.Labels))
		for k, v := range s.Labels {
			clone.Labels[k] = v
		}
	}
	return clone
}

// WithLabel returns a cloned scope filter with the provided label set. Keys
// are normalized to lower-case so lookups stay consistent across transports.
func (s ScopeFilter) WithLabel(key string, id uuid.UUID) ScopeFilter {
	if strings.TrimSpace(key) == "" || id == uuid.Nil {
		return s
	}
	clone := s.Clone()
	if clone.Labels == nil {
		clone.Labels = make(map[string]uuid.UUID)
	}
	clone.Labels[strings.ToLower(key)] = id
	return clone
}

// Label returns the identifier previously stored under the key (case
// insensitive). When the label has not been set, uuid.Nil is returned.
func (s ScopeFilter) Label(key string) uuid.UUID {
	if len(s.Labels) == 0 {
		return uuid.Nil
	}
	return s.Labels[strings.ToLower(strings.TrimSpace(key))]
}

// Pagination supports offset pagination across dashboards and admin panels.
type Pagination struct {
	Limit  int
	Offset int
}

// ActorRef identifies who or what is initiating a change.
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// Profile captures the structured account profile stored per user.
type Profile struct {
	UserID      uuid.UUID
	FirstName   string
	LastName    string
	DisplayName string
	Bio         string
	Phone       string
	Website     string
	JobTitle    string
	Company     string
	Department  string
	Location    string
	Timezone    string
	Locale      string
	AvatarURL   string
	Scope       ScopeFilter
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   uuid.UUID
	UpdatedBy   uuid.UUID
}

// ProfilePatch represents partial updates applied to a profile. Only fields
// listed here are writable through the update path; identifiers, timestamps,
// and the avatar URL mirror are never patched directly.
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	DisplayName *string
	Bio         *string
	Phone       *string
	Website     *string
	JobTitle    *string
	Company     *string
	Department  *string
	Location    *string
	Timezone    *string
	Locale      *string
}

// Fields lists the allow-listed field names carried by the patch, used for
// activity descriptions and org extension merges.
func (p ProfilePatch) Fields() []string {
	var fields []string
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add("first_name", p.FirstName != nil)
	add("last_name", p.LastName != nil)
	add("display_name", p.DisplayName != nil)
	add("bio", p.Bio != nil)
	add("phone", p.Phone != nil)
	add("website", p.Website != nil)
	add("job_title", p.JobTitle != nil)
	add("company", p.Company != nil)
	add("department", p.Department != nil)
	add("location", p.Location != nil)
	add("timezone", p.Timezone != nil)
	add("locale", p.Locale != nil)
	return fields
}

// IsEmpty reports whether the patch carries no writable fields.
func (p ProfilePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// ProfileFilter narrows admin profile listings.
type ProfileFilter struct {
	Scope      ScopeFilter
	Keyword    string
	Pagination Pagination
	UserIDs    []uuid.UUID
}

// ProfilePage represents a paginated profile listing.
type ProfilePage struct {
	Profiles   []Profile
	Total      int
	NextOffset int
	HasMore    bool
}

// ProfileRepository persists and retrieves profile rows.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID, scope ScopeFilter) (*Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) (*Profile, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error
	SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) error
	ListProfiles(ctx context.Context, filter ProfileFilter) (ProfilePage, error)
}

// NotificationSettings groups the per-category notification toggles.
type NotificationSettings struct {
	Email          bool
	Push           bool
	SMS            bool
	Marketing      bool
	SecurityAlerts bool
	ActivityDigest bool
}

// QuietHours describes the window during which notifications are muted.
type QuietHours struct {
	Enabled bool
	Start   string
	End     string
}

// AccessibilitySettings groups accessibility toggles.
type AccessibilitySettings struct {
	ReduceMotion bool
	HighContrast bool
	LargeText    bool
}

// Preferences is the one-row-per-user settings record. Exactly one row exists
// per user; the storage layer enforces uniqueness so a duplicate insert fails
// instead of silently overwriting.
type Preferences struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Theme               Theme
	Locale              string
	Notifications       NotificationSettings
	ProfileVisibility   Visibility
	EmailVisibility     Visibility
	ActivityVisibility  Visibility
	QuietHours          QuietHours
	Accessibility       AccessibilitySettings
	DataRetentionDays   int
	OrganizationContext map[string]map[string]any
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PreferencePatch carries partial preference updates.
type PreferencePatch struct {
	Theme              *Theme
	Locale             *string
	Notifications      *NotificationSettings
	ProfileVisibility  *Visibility
	EmailVisibility    *Visibility
	ActivityVisibility *Visibility
	QuietHours         *QuietHours
	Accessibility      *AccessibilitySettings
	DataRetentionDays  *int
}

// PreferenceRepository exposes the single-row preference store.
type PreferenceRepository interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error)
	LoadOrCreate(ctx context.Context, defaults Preferences) (*Preferences, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, patch PreferencePatch) (*Preferences, error)
	DeletePreferences(ctx context.Context, userID uuid.UUID) error
	MergeOrganizationContext(ctx context.Context, userID uuid.UUID, orgID uuid.UUID, fields map[string]any) (*Preferences, error)
}

// Avatar models an uploaded avatar image plus its processed size variants.
// At most one avatar per user is active at a time; activation is eventual,
// not linearizable, since deactivate/activate are two sequential writes.
type Avatar struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	StoragePath string
	Bucket      string
	PublicURL   string
	SizeBytes   int64
	MimeType    string
	Width       int
	Height      int
	Variants    map[string]string
	ContentHash string
	IsActive    bool
	IsApproved  bool
	Scope       ScopeFilter
	CreatedAt   time.Time
}

// AvatarRepository persists avatar metadata rows.
type AvatarRepository interface {
	InsertAvatar(ctx context.Context, avatar Avatar) (*Avatar, error)
	GetAvatar(ctx context.Context, avatarID, userID uuid.UUID) (*Avatar, error)
	ListAvatars(ctx context.Context, userID uuid.UUID) ([]Avatar, error)
	ActiveAvatar(ctx context.Context, userID uuid.UUID) (*Avatar, error)
	ActivateAvatar(ctx context.Context, avatarID, userID uuid.UUID) (*Avatar, error)
	DeleteAvatar(ctx context.Context, avatarID, userID uuid.UUID) error
}

// Session is one active device login. Revocation sets revoked_at instead of
// deleting the row so the audit trail survives.
type Session struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	DeviceType    string
	DeviceName    string
	Browser       string
	OS            string
	IPAddress     string
	Location      string
	IsCurrent     bool
	IsTrusted     bool
	LastSeenAt    time.Time
	CreatedAt     time.Time
	RevokedAt     *time.Time
	RevokedReason string
}

// DeviceSummary aggregates sessions per device type for dashboards.
type DeviceSummary struct {
	DeviceType string
	Sessions   int
	LastSeenAt time.Time
}

// SessionRepository exposes session reads plus the single-field revocation
// mutation. Revoke scopes the update by both session and user id; that query
// predicate is the only authorization check on the session path.
type SessionRepository interface {
	InsertSession(ctx context.Context, session Session) (*Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]Session, error)
	GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*Session, error)
	RevokeSession(ctx context.Context, sessionID, userID uuid.UUID, reason string) (bool, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID, reason string) (int, error)
	DeviceSummary(ctx context.Context, userID uuid.UUID) ([]DeviceSummary, error)
}

// Membership is the read-only organization membership context used to derive
// permission flags on aggregated profile responses.
type Membership struct {
	UserID      uuid.UUID
	OrgID       uuid.UUID
	Role        string
	Permissions []string
	JoinedAt    time.Time
}

// MembershipRepository exposes read-only membership lookups.
type MembershipRepository interface {
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*Membership, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]Membership, error)
}

// ActivityRecord describes one append-only audit log row. Rows are never
// mutated after creation.
type ActivityRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ActorID     uuid.UUID
	Action      string
	Description string
	Status      ActivityStatus
	IPAddress   string
	DeviceType  string
	OrgID       uuid.UUID
	Data        map[string]any
	OccurredAt  time.Time
}

// ActivitySink is the minimal DI contract for emitting activity. Keep it
// stable and limited to Log so hosts can swap sinks without breaking changes.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// ActivityFilter narrows activity feed queries.
type ActivityFilter struct {
	UserID     uuid.UUID
	Scope      ScopeFilter
	Actions    []string
	Statuses   []ActivityStatus
	Since      *time.Time
	Until      *time.Time
	Keyword    string
	Pagination Pagination
}

// ActivityPage represents a paginated feed response.
type ActivityPage struct {
	Records    []ActivityRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// ActivityRepository exposes read-side access to the activity log.
type ActivityRepository interface {
	ListActivity(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

// ObjectStore abstracts the remote blob store used for avatar images. Two
// interchangeable backends exist; the contract is identical.
type ObjectStore interface {
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// ProfileEvent signals that a profile mutation occurred.
type ProfileEvent struct {
	UserID        uuid.UUID
	Scope         ScopeFilter
	ActorID       uuid.UUID
	OccurredAt    time.Time
	Profile       Profile
	ChangedFields []string
}

// PreferenceEvent signals preference mutations so downstream systems can
// invalidate caches or push notifications.
type PreferenceEvent struct {
	UserID      uuid.UUID
	ActorID     uuid.UUID
	OccurredAt  time.Time
	Preferences Preferences
	ThemeChange bool
}

// AvatarEvent signals avatar lifecycle changes (upload/activate/delete).
type AvatarEvent struct {
	UserID     uuid.UUID
	ActorID    uuid.UUID
	Action     string
	Avatar     Avatar
	OccurredAt time.Time
}

// SessionEvent signals a session revocation.
type SessionEvent struct {
	UserID     uuid.UUID
	SessionID  uuid.UUID
	ActorID    uuid.UUID
	Reason     string
	OccurredAt time.Time
}

// ThemeEvent carries the presentation side effect of a theme change. Applying
// the theme (class toggles, media-query subscriptions) is the host's concern;
// the library only reports that the stored theme changed.
type ThemeEvent struct {
	UserID     uuid.UUID
	Theme      Theme
	OccurredAt time.Time
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterProfileChange    func(context.Context, ProfileEvent)
	AfterPreferenceChange func(context.Context, PreferenceEvent)
	AfterThemeChange      func(context.Context, ThemeEvent)
	AfterAvatarChange     func(context.Context, AvatarEvent)
	AfterSessionRevoke    func(context.Context, SessionEvent)
	AfterActivity         func(context.Context, ActivityRecord)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrUserIDRequired indicates a user identifier was omitted.
	ErrUserIDRequired = errors.New("go-accounts: user id required")
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-accounts: actor reference required")
	// ErrOrgIDRequired indicates an organization id was omitted while the
	// tenancy mode requires one.
	ErrOrgIDRequired = errors.New("go-accounts: organization id required for organization mode")
	// ErrProfileNotFound indicates the base profile row is absent. Callers can
	// branch on this to create defaults instead of hard failing.
	ErrProfileNotFound = errors.New("go-accounts: profile not found")
	// ErrPreferencesNotFound indicates no preference row exists for the user.
	ErrPreferencesNotFound = errors.New("go-accounts: preferences not found")
	// ErrAvatarNotFound indicates the avatar row is absent for the user.
	ErrAvatarNotFound = errors.New("go-accounts: avatar not found")
	// ErrSessionNotFound indicates no session matched both session and user id.
	ErrSessionNotFound = errors.New("go-accounts: session not found")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-accounts: service not ready")
	// ErrMissingProfileRepository occurs when profile flows lack storage.
	ErrMissingProfileRepository = errors.New("go-accounts: missing profile repository")
	// ErrMissingPreferenceRepository occurs when preference flows lack storage.
	ErrMissingPreferenceRepository = errors.New("go-accounts: missing preference repository")
	// ErrMissingAvatarRepository occurs when avatar flows lack storage.
	ErrMissingAvatarRepository = errors.New("go-accounts: missing avatar repository")
	// ErrMissingSessionRepository occurs when session flows lack storage.
	ErrMissingSessionRepository = errors.New("go-accounts: missing session repository")
	// ErrMissingMembershipRepository occurs when organization context lookups lack storage.
	ErrMissingMembershipRepository = errors.New("go-accounts: missing membership repository")
	// ErrMissingActivitySink occurs when no activity sink was supplied.
	ErrMissingActivitySink = errors.New("go-accounts: missing activity sink")
	// ErrMissingActivityRepository occurs when no activity repository was supplied.
	ErrMissingActivityRepository = errors.New("go-accounts: missing activity repository")
	// ErrMissingObjectStore occurs when avatar flows lack a blob store.
	ErrMissingObjectStore = errors.New("go-accounts: missing object store")
)

package service

import (
	"context"

	"github.com/goliatone/go-accounts/avatar"
	"github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/manager"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/preferences"
	"github.com/goliatone/go-accounts/query"
	"github.com/goliatone/go-accounts/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// Service is the entry point for go-accounts. It wires repositories, the
// object store, hooks, and command/query facades supplied by the host
// application. The tenancy mode is resolved once here and passed explicitly
// to every handler that branches on it.
type Service struct {
	cfg            Config
	commands       Commands
	queries        Queries
	activityRepo   types.ActivityRepository
	profileRepo    types.ProfileRepository
	preferenceRepo types.PreferenceRepository
	prefResolver   PreferenceResolver
	profileManager *manager.ProfileManager
	scopeGuard     scope.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	ProfileUpdate    *command.ProfileUpdateCommand
	PreferenceUpdate *command.PreferenceUpdateCommand
	PreferenceReset  *command.PreferenceResetCommand
	AvatarUpload     *command.AvatarUploadCommand
	AvatarActivate   *command.AvatarActivateCommand
	AvatarDelete     *command.AvatarDeleteCommand
	SessionRevoke    *command.SessionRevokeCommand
	SessionRevokeAll *command.SessionRevokeAllCommand
	LogActivity      *command.ActivityLogCommand
	AccountDelete    *command.AccountDeleteCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	ProfileDetail    *query.ProfileQuery
	ProfileInventory *query.ProfileInventoryQuery
	Preferences      *query.PreferenceQuery
	ActivityFeed     *query.ActivityFeedQuery
	SecurityEvents   *query.SecurityEventsQuery
	Sessions         *query.SessionListQuery
	DeviceSummary    *query.DeviceSummaryQuery
	Avatars          *query.AvatarHistoryQuery
	DataExport       *query.DataExportQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB repositories, object stores, hooks, etc.).
type Config struct {
	TenancyMode          types.TenancyMode
	ProfileRepository    types.ProfileRepository
	PreferenceRepository types.PreferenceRepository
	AvatarRepository     types.AvatarRepository
	SessionRepository    types.SessionRepository
	MembershipRepository types.MembershipRepository
	ActivityRepository   types.ActivityRepository
	ActivitySink         types.ActivitySink
	ObjectStore          types.ObjectStore
	AvatarProcessor      *avatar.Processor
	FeatureGate          featuregate.FeatureGate
	SecureLinks          types.SecureLinkManager
	ExportTokens         ExportTokenStore
	Hooks                types.Hooks
	Clock                types.Clock
	IDGenerator          types.IDGenerator
	Logger               types.Logger
	PreferenceResolver   PreferenceResolver
	ScopeResolver        types.ScopeResolver
	AuthorizationPolicy  types.AuthorizationPolicy
}

// PreferenceResolver resolves layered preferences for queries.
type PreferenceResolver interface {
	Resolve(ctx context.Context, input preferences.ResolveInput) (preferences.Snapshot, error)
}

// ExportTokenStore persists single-use export download tokens. The export
// query issues them and the deletion cascade revokes them.
type ExportTokenStore interface {
	query.DownloadTokenIssuer
	command.ExportTokenRevoker
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	actRepo := norm.ActivityRepository
	if actRepo == nil {
		if sinkRepo, ok := norm.ActivitySink.(types.ActivityRepository); ok {
			actRepo = sinkRepo
		}
	}
	prefResolver := norm.PreferenceResolver
	if prefResolver == nil && norm.PreferenceRepository != nil {
		if resolver, err := preferences.NewResolver(preferences.ResolverConfig{
			Repository: norm.PreferenceRepository,
			Mode:       norm.TenancyMode,
		}); err == nil {
			prefResolver = resolver
		} else if norm.Logger != nil {
			norm.Logger.Error("go-accounts: preference resolver initialization failed", err)
		}
	}

	scopeGuard := scope.Ensure(scope.NewGuard(norm.ScopeResolver, norm.AuthorizationPolicy))

	s := &Service{
		cfg:            norm,
		activityRepo:   actRepo,
		profileRepo:    norm.ProfileRepository,
		preferenceRepo: norm.PreferenceRepository,
		prefResolver:   prefResolver,
		scopeGuard:     scopeGuard,
	}
	if norm.ProfileRepository != nil {
		if mgr, err := manager.New(manager.Config{
			Mode:        norm.TenancyMode,
			Profiles:    norm.ProfileRepository,
			Preferences: norm.PreferenceRepository,
			Avatars:     norm.AvatarRepository,
			Sessions:    norm.SessionRepository,
			Memberships: norm.MembershipRepository,
			Activity:    actRepo,
			Sink:        norm.ActivitySink,
			Clock:       norm.Clock,
			Logger:      norm.Logger,
		}); err == nil {
			s.profileManager = mgr
		} else {
			norm.Logger.Error("go-accounts: profile manager initialization failed", err)
		}
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if !cfg.TenancyMode.Valid() {
		cfg.TenancyMode = types.TenancySingle
	}
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Mode returns the tenancy mode resolved at construction.
func (s *Service) Mode() types.TenancyMode {
	if s == nil {
		return types.TenancySingle
	}
	return s.cfg.TenancyMode
}

// Manager returns the profile aggregator, or nil when the profile repository
// was not wired.
func (s *Service) Manager() *manager.ProfileManager {
	if s == nil {
		return nil
	}
	return s.profileManager
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.profileRepo != nil &&
		s.preferenceRepo != nil &&
		s.cfg.ActivitySink != nil &&
		s.activityRepo != nil &&
		s.prefResolver != nil
}

// HealthCheck surfaces missing configuration so upstream transports can fail
// fast before serving requests. Avatar and session stores stay optional;
// hosts that skip them simply never wire those routes.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if s.profileRepo == nil {
		return types.ErrMissingProfileRepository
	}
	if s.preferenceRepo == nil {
		return types.ErrMissingPreferenceRepository
	}
	if s.cfg.ActivitySink == nil {
		return types.ErrMissingActivitySink
	}
	if s.activityRepo == nil {
		return types.ErrMissingActivityRepository
	}
	if s.cfg.AvatarRepository != nil && s.cfg.ObjectStore == nil {
		return types.ErrMissingObjectStore
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can
// reuse the same resolver/policy combination for HTTP adapters.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.NopGuard()
	}
	return scope.Ensure(s.scopeGuard)
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows (e.g. CRUD controllers).
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

func (s *Service) buildCommands() Commands {
	avatarCfg := command.AvatarCommandConfig{
		Repository: s.cfg.AvatarRepository,
		Profiles:   s.cfg.ProfileRepository,
		Store:      s.cfg.ObjectStore,
		Processor:  s.cfg.AvatarProcessor,
		Gate:       s.cfg.FeatureGate,
		Hooks:      s.cfg.Hooks,
		Clock:      s.cfg.Clock,
		IDGen:      s.cfg.IDGenerator,
		Logger:     s.cfg.Logger,
		Activity:   s.cfg.ActivitySink,
		ScopeGuard: s.scopeGuard,
	}
	sessionCfg := command.SessionCommandConfig{
		Repository: s.cfg.SessionRepository,
		Hooks:      s.cfg.Hooks,
		Clock:      s.cfg.Clock,
		Activity:   s.cfg.ActivitySink,
		ScopeGuard: s.scopeGuard,
	}
	preferenceCfg := command.PreferenceCommandConfig{
		Repository: s.cfg.PreferenceRepository,
		Mode:       s.cfg.TenancyMode,
		Hooks:      s.cfg.Hooks,
		Clock:      s.cfg.Clock,
		Activity:   s.cfg.ActivitySink,
		ScopeGuard: s.scopeGuard,
	}
	return Commands{
		ProfileUpdate: command.NewProfileUpdateCommand(command.ProfileCommandConfig{
			Repository:  s.cfg.ProfileRepository,
			Preferences: s.cfg.PreferenceRepository,
			Mode:        s.cfg.TenancyMode,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
			Activity:    s.cfg.ActivitySink,
			ScopeGuard:  s.scopeGuard,
		}),
		PreferenceUpdate: command.NewPreferenceUpdateCommand(preferenceCfg),
		PreferenceReset:  command.NewPreferenceResetCommand(preferenceCfg),
		AvatarUpload:     command.NewAvatarUploadCommand(avatarCfg),
		AvatarActivate:   command.NewAvatarActivateCommand(avatarCfg),
		AvatarDelete:     command.NewAvatarDeleteCommand(avatarCfg),
		SessionRevoke:    command.NewSessionRevokeCommand(sessionCfg),
		SessionRevokeAll: command.NewSessionRevokeAllCommand(sessionCfg),
		LogActivity: command.NewActivityLogCommand(command.ActivityLogConfig{
			Sink:  s.cfg.ActivitySink,
			Hooks: s.cfg.Hooks,
			Clock: s.cfg.Clock,
		}),
		AccountDelete: command.NewAccountDeleteCommand(command.AccountDeleteConfig{
			Profiles:     s.cfg.ProfileRepository,
			Preferences:  s.cfg.PreferenceRepository,
			Avatars:      s.cfg.AvatarRepository,
			Sessions:     s.cfg.SessionRepository,
			Store:        s.cfg.ObjectStore,
			ExportTokens: s.cfg.ExportTokens,
			Hooks:        s.cfg.Hooks,
			Clock:        s.cfg.Clock,
			Logger:       s.cfg.Logger,
			Activity:     s.cfg.ActivitySink,
			ScopeGuard:   s.scopeGuard,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		ProfileDetail:    query.NewProfileQuery(s.profileRepo, s.scopeGuard),
		ProfileInventory: query.NewProfileInventoryQuery(s.profileRepo, s.cfg.Logger, s.scopeGuard),
		Preferences:      query.NewPreferenceQuery(s.prefResolver, s.scopeGuard),
		ActivityFeed:     query.NewActivityFeedQuery(s.activityRepo, s.scopeGuard),
		SecurityEvents:   query.NewSecurityEventsQuery(s.activityRepo, s.scopeGuard),
		Sessions:         query.NewSessionListQuery(s.cfg.SessionRepository, s.scopeGuard),
		DeviceSummary:    query.NewDeviceSummaryQuery(s.cfg.SessionRepository, s.scopeGuard),
		Avatars:          query.NewAvatarHistoryQuery(s.cfg.AvatarRepository, s.scopeGuard),
		DataExport: query.NewDataExportQuery(query.ExportQueryConfig{
			Profiles:    s.profileRepo,
			Preferences: s.preferenceRepo,
			Avatars:     s.cfg.AvatarRepository,
			Sessions:    s.cfg.SessionRepository,
			Memberships: s.cfg.MembershipRepository,
			Activity:    s.activityRepo,
			Gate:        s.cfg.FeatureGate,
			Links:       s.cfg.SecureLinks,
			Tokens:      s.cfg.ExportTokens,
			Clock:       s.cfg.Clock,
			Sink:        s.cfg.ActivitySink,
			ScopeGuard:  s.scopeGuard,
		}),
	}
}

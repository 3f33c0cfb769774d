package query

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	"github.com/goliatone/go-accounts/tokens"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// DownloadTokenIssuer persists the single-use token backing a signed export
// link so the download endpoint can reject replays.
type DownloadTokenIssuer interface {
	Issue(ctx context.Context, token tokens.ExportToken) (*tokens.ExportToken, error)
}

const featureDataExport = "accounts.data_export"

// SecureLinkRouteExportDownload names the securelink route used for signed
// export download URLs.
const SecureLinkRouteExportDownload = "export_download"

const exportActivityPageSize = 200

const defaultDownloadTokenTTL = 24 * time.Hour

// ErrExportDisabled indicates data export is disabled via feature gate.
var ErrExportDisabled = errors.New("go-accounts: data export disabled")

// ExportBundle is the GDPR style export of everything stored for one user.
// Activity payloads are masked with the same sanitizer the feed uses.
type ExportBundle struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	UserID        uuid.UUID              `json:"user_id"`
	Profile       *types.Profile         `json:"profile,omitempty"`
	Preferences   *types.Preferences     `json:"preferences,omitempty"`
	Avatars       []types.Avatar         `json:"avatars,omitempty"`
	Sessions      []types.Session        `json:"sessions,omitempty"`
	Memberships   []types.Membership     `json:"memberships,omitempty"`
	Activity      []types.ActivityRecord `json:"activity,omitempty"`
	DownloadToken string                 `json:"download_token,omitempty"`
}

// DataExportInput requests an export bundle for a user.
type DataExportInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// ExportQueryConfig wires every store the export bundle reads from.
type ExportQueryConfig struct {
	Profiles    types.ProfileRepository
	Preferences types.PreferenceRepository
	Avatars     types.AvatarRepository
	Sessions    types.SessionRepository
	Memberships types.MembershipRepository
	Activity    types.ActivityRepository
	Gate        featuregate.FeatureGate
	Links       types.SecureLinkManager
	Tokens      DownloadTokenIssuer
	TokenTTL    time.Duration
	Clock       types.Clock
	Sink        types.ActivitySink
	ScopeGuard  scope.Guard
}

// DataExportQuery assembles the export bundle. Absent stores are skipped so
// hosts wiring only a subset of repositories still get a partial export.
type DataExportQuery struct {
	profiles    types.ProfileRepository
	preferences types.PreferenceRepository
	avatars     types.AvatarRepository
	sessions    types.SessionRepository
	memberships types.MembershipRepository
	activities  types.ActivityRepository
	gate        featuregate.FeatureGate
	links       types.SecureLinkManager
	tokens      DownloadTokenIssuer
	tokenTTL    time.Duration
	clock       types.Clock
	sink        types.ActivitySink
	guard       scope.Guard
}

// NewDataExportQuery constructs the export helper.
func NewDataExportQuery(cfg ExportQueryConfig) *DataExportQuery {
	return &DataExportQuery{
		profiles:    cfg.Profiles,
		preferences: cfg.Preferences,
		avatars:     cfg.Avatars,
		sessions:    cfg.Sessions,
		memberships: cfg.Memberships,
		activities:  cfg.Activity,
		gate:        cfg.Gate,
		links:       cfg.Links,
		tokens:      cfg.Tokens,
		tokenTTL:    cfg.TokenTTL,
		clock:       cfg.Clock,
		sink:        cfg.Sink,
		guard:       safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Querier[DataExportInput, ExportBundle] = (*DataExportQuery)(nil)

// Query assembles the bundle and appends an audit record on success.
func (q *DataExportQuery) Query(ctx context.Context, input DataExportInput) (ExportBundle, error) {
	if q.profiles == nil {
		return ExportBundle{}, types.ErrMissingProfileRepository
	}
	if input.UserID == uuid.Nil {
		return ExportBundle{}, types.ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ExportBundle{}, types.ErrActorRequired
	}

	scope, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionExportRead, input.UserID)
	if err != nil {
		return ExportBundle{}, err
	}

	if q.gate != nil {
		chain := exportScopeChain(scope, input.UserID)
		enabled, err := q.gate.Enabled(ctx, featureDataExport, featuregate.WithScopeChain(chain))
		if err != nil {
			return ExportBundle{}, err
		}
		if !enabled {
			return ExportBundle{}, ErrExportDisabled
		}
	}

	bundle := ExportBundle{
		GeneratedAt: now(q.clock),
		UserID:      input.UserID,
	}

	profile, err := q.profiles.GetProfile(ctx, input.UserID, scope)
	if err != nil && !errors.Is(err, types.ErrProfileNotFound) {
		return ExportBundle{}, err
	}
	bundle.Profile = profile

	if q.preferences != nil {
		prefs, err := q.preferences.GetPreferences(ctx, input.UserID)
		if err != nil && !errors.Is(err, types.ErrPreferencesNotFound) {
			return ExportBundle{}, err
		}
		bundle.Preferences = prefs
	}
	if q.avatars != nil {
		uploads, err := q.avatars.ListAvatars(ctx, input.UserID)
		if err != nil {
			return ExportBundle{}, err
		}
		bundle.Avatars = uploads
	}
	if q.sessions != nil {
		sessions, err := q.sessions.ListSessions(ctx, input.UserID)
		if err != nil {
			return ExportBundle{}, err
		}
		bundle.Sessions = sessions
	}
	if q.memberships != nil {
		memberships, err := q.memberships.ListMemberships(ctx, input.UserID)
		if err != nil {
			return ExportBundle{}, err
		}
		bundle.Memberships = memberships
	}
	if q.activities != nil {
		records, err := q.collectActivity(ctx, input.UserID, scope)
		if err != nil {
			return ExportBundle{}, err
		}
		bundle.Activity = records
	}

	if q.links != nil {
		jti := uuid.NewString()
		token, err := q.links.Generate(SecureLinkRouteExportDownload, types.SecureLinkPayload{
			"action":       "export_download",
			"user_id":      input.UserID.String(),
			"jti":          jti,
			"generated_at": bundle.GeneratedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ExportBundle{}, err
		}
		if q.tokens != nil {
			ttl := q.tokenTTL
			if ttl <= 0 {
				ttl = defaultDownloadTokenTTL
			}
			_, err := q.tokens.Issue(ctx, tokens.ExportToken{
				UserID:    input.UserID,
				JTI:       jti,
				OrgID:     scope.OrgID,
				IssuedAt:  bundle.GeneratedAt,
				ExpiresAt: bundle.GeneratedAt.Add(ttl),
			})
			if err != nil {
				return ExportBundle{}, err
			}
		}
		bundle.DownloadToken = token
	}

	if q.sink != nil {
		_ = q.sink.Log(ctx, types.ActivityRecord{
			UserID:     input.UserID,
			ActorID:    input.Actor.ID,
			Action:     activity.ActionDataExported,
			Status:     types.ActivityStatusSuccess,
			OrgID:      scope.OrgID,
			OccurredAt: bundle.GeneratedAt,
		})
	}
	return bundle, nil
}

func (q *DataExportQuery) collectActivity(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter) ([]types.ActivityRecord, error) {
	mask := activity.DefaultMasker()
	var out []types.ActivityRecord
	offset := 0
	for {
		page, err := q.activities.ListActivity(ctx, types.ActivityFilter{
			UserID: userID,
			Scope:  scope,
			Pagination: types.Pagination{
				Limit:  exportActivityPageSize,
				Offset: offset,
			},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, activity.SanitizeRecords(mask, page.Records)...)
		if !page.HasMore || len(page.Records) == 0 {
			return out, nil
		}
		offset = page.NextOffset
	}
}

func exportScopeChain(scope types.ScopeFilter, userID uuid.UUID) featuregate.ScopeChain {
	orgID := ""
	if scope.OrgID != uuid.Nil {
		orgID = scope.OrgID.String()
	}
	chain := featuregate.ScopeChain{}
	if userID != uuid.Nil {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeUser, ID: userID.String(), OrgID: orgID})
	}
	if orgID != "" {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeOrg, ID: orgID, OrgID: orgID})
	}
	chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeSystem})
	return chain
}

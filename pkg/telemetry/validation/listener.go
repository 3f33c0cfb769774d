package validation

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/authctx"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-auth/middleware/jwtware"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// SchemaNotifier receives callbacks whenever an authenticated actor is
// validated so schema exporters can refresh caches.
type SchemaNotifier interface {
	Notify(ctx context.Context, actorID uuid.UUID, metadata map[string]any)
}

// ListenerOptions customize the validation listener behaviour.
type ListenerOptions struct {
	ActivitySink   types.ActivitySink
	Logger         types.Logger
	SchemaNotifier SchemaNotifier
}

// NewListener returns a jwtware.ValidationListener that appends a login audit
// record and notifies schema observers whenever a token is validated.
func NewListener(opts ListenerOptions) jwtware.ValidationListener {
	logger := opts.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		actorCtx, err := authctx.ResolveActorContextFromRouter(ctx)
		if err != nil {
			logger.Error("validation listener failed to resolve actor", err)
			return nil
		}
		actorID := parseUUID(actorCtx.ActorID)
		if opts.ActivitySink != nil {
			record := types.ActivityRecord{
				UserID:  actorID,
				ActorID: actorID,
				Action:  activity.ActionLogin,
				Status:  types.ActivityStatusSuccess,
				OrgID:   parseUUID(actorCtx.OrganizationID),
				Data: map[string]any{
					"role":    actorCtx.Role,
					"subject": claims.Subject(),
				},
			}
			if err := opts.ActivitySink.Log(ctx.Context(), record); err != nil {
				logger.Error("validation activity sink failed", err)
			}
		}
		if opts.SchemaNotifier != nil {
			opts.SchemaNotifier.Notify(ctx.Context(), actorID, actorCtx.Metadata)
		}
		return nil
	}
}

func parseUUID(value string) uuid.UUID {
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}

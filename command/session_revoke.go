package command

import (
	"context"

	"github.com/goliatone/go-accounts/activity"
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// SessionCommandConfig wires dependencies for session commands.
type SessionCommandConfig struct {
	Repository types.SessionRepository
	Hooks      types.Hooks
	Clock      types.Clock
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
}

// SessionRevokeInput revokes a single session.
type SessionRevokeInput struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Reason    string
	Scope     types.ScopeFilter
	Actor     types.ActorRef
	// Revoked reports whether this call performed the revocation. False with
	// a nil error means the session was already revoked.
	Revoked *bool
}

// Type implements gocommand.Message.
func (SessionRevokeInput) Type() string {
	return "command.session.revoke"
}

// Validate implements gocommand.Message.
func (input SessionRevokeInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.SessionID == uuid.Nil {
		return ErrSessionIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// SessionRevokeCommand revokes one session scoped to the owning user.
type SessionRevokeCommand struct {
	repo  types.SessionRepository
	hooks types.Hooks
	clock types.Clock
	sink  types.ActivitySink
	guard scope.Guard
}

// NewSessionRevokeCommand constructs the single-session revocation handler.
func NewSessionRevokeCommand(cfg SessionCommandConfig) *SessionRevokeCommand {
	return &SessionRevokeCommand{
		repo:  cfg.Repository,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		sink:  safeActivitySink(cfg.Activity),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[SessionRevokeInput] = (*SessionRevokeCommand)(nil)

// Execute revokes the session. Re-revoking an already revoked session is a
// no-op: no activity is logged and no hook fires.
func (c *SessionRevokeCommand) Execute(ctx context.Context, input SessionRevokeInput) error {
	if c.repo == nil {
		return types.ErrMissingSessionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionSessionsWrite, input.UserID)
	if err != nil {
		return err
	}

	revoked, err := c.repo.RevokeSession(ctx, input.SessionID, input.UserID, input.Reason)
	if err != nil {
		return err
	}
	if input.Revoked != nil {
		*input.Revoked = revoked
	}
	if !revoked {
		return nil
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionSessionRevoked,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"session_id": input.SessionID.String(), "reason": input.Reason},
		OccurredAt: now(c.clock),
	})
	emitSessionHook(ctx, c.hooks, types.SessionEvent{
		UserID:     input.UserID,
		SessionID:  input.SessionID,
		ActorID:    input.Actor.ID,
		Reason:     input.Reason,
		OccurredAt: now(c.clock),
	})
	return nil
}

// SessionRevokeAllInput revokes every unrevoked session for the user.
type SessionRevokeAllInput struct {
	UserID uuid.UUID
	Reason string
	Scope  types.ScopeFilter
	Actor  types.ActorRef
	// Count receives the number of sessions revoked by this call.
	Count *int
}

// Type implements gocommand.Message.
func (SessionRevokeAllInput) Type() string {
	return "command.session.revoke_all"
}

// Validate implements gocommand.Message.
func (input SessionRevokeAllInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// SessionRevokeAllCommand is the sign-out-everywhere handler.
type SessionRevokeAllCommand struct {
	repo  types.SessionRepository
	hooks types.Hooks
	clock types.Clock
	sink  types.ActivitySink
	guard scope.Guard
}

// NewSessionRevokeAllCommand constructs the revoke-all handler.
func NewSessionRevokeAllCommand(cfg SessionCommandConfig) *SessionRevokeAllCommand {
	return &SessionRevokeAllCommand{
		repo:  cfg.Repository,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		sink:  safeActivitySink(cfg.Activity),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[SessionRevokeAllInput] = (*SessionRevokeAllCommand)(nil)

// Execute revokes every unrevoked session and logs a single summary record.
func (c *SessionRevokeAllCommand) Execute(ctx context.Context, input SessionRevokeAllInput) error {
	if c.repo == nil {
		return types.ErrMissingSessionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scope, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionSessionsWrite, input.UserID)
	if err != nil {
		return err
	}

	count, err := c.repo.RevokeAllSessions(ctx, input.UserID, input.Reason)
	if err != nil {
		return err
	}
	if input.Count != nil {
		*input.Count = count
	}
	if count == 0 {
		return nil
	}

	logActivity(ctx, c.sink, types.ActivityRecord{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Action:     activity.ActionSessionsRevoked,
		Status:     types.ActivityStatusSuccess,
		OrgID:      scope.OrgID,
		Data:       map[string]any{"count": count, "reason": input.Reason},
		OccurredAt: now(c.clock),
	})
	emitSessionHook(ctx, c.hooks, types.SessionEvent{
		UserID:     input.UserID,
		ActorID:    input.Actor.ID,
		Reason:     input.Reason,
		OccurredAt: now(c.clock),
	})
	return nil
}

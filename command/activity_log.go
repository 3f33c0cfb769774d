package command

import (
	"context"
	"strings"

	"github.com/goliatone/go-accounts/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ActivityLogInput wraps a record to persist through the ActivitySink.
type ActivityLogInput struct {
	Record types.ActivityRecord
}

// Type implements gocommand.Message.
func (ActivityLogInput) Type() string {
	return "command.activity.log"
}

// Validate implements gocommand.Message.
func (input ActivityLogInput) Validate() error {
	if strings.TrimSpace(input.Record.Action) == "" {
		return ErrActivityActionRequired
	}
	if input.Record.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	return nil
}

// ActivityLogConfig wires dependencies for the activity log command.
type ActivityLogConfig struct {
	Sink  types.ActivitySink
	Hooks types.Hooks
	Clock types.Clock
}

// ActivityLogCommand logs arbitrary activity records. Hosts use it to feed
// auth events (logins, password changes) into the same audit trail the
// library writes its own records to.
type ActivityLogCommand struct {
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
}

// NewActivityLogCommand constructs the activity log handler.
func NewActivityLogCommand(cfg ActivityLogConfig) *ActivityLogCommand {
	return &ActivityLogCommand{
		sink:  safeActivitySink(cfg.Sink),
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
	}
}

var _ gocommand.Commander[ActivityLogInput] = (*ActivityLogCommand)(nil)

// Execute stamps defaults onto the record and persists it.
func (c *ActivityLogCommand) Execute(ctx context.Context, input ActivityLogInput) error {
	if c.sink == nil {
		return types.ErrMissingActivitySink
	}
	if err := input.Validate(); err != nil {
		return err
	}

	record := input.Record
	if record.Status == "" {
		record.Status = types.ActivityStatusSuccess
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = now(c.clock)
	}
	if err := c.sink.Log(ctx, record); err != nil {
		return err
	}
	emitActivityHook(ctx, c.hooks, record)
	return nil
}

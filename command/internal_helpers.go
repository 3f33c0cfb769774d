package command

import (
	"context"
	"time"

	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/goliatone/go-accounts/scope"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeHooks(hooks types.Hooks) types.Hooks {
	return hooks
}

func safeActivitySink(sink types.ActivitySink) types.ActivitySink {
	return sink
}

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func logActivity(ctx context.Context, sink types.ActivitySink, record types.ActivityRecord) {
	if sink == nil {
		return
	}
	_ = sink.Log(ctx, record)
}

func emitProfileHook(ctx context.Context, hooks types.Hooks, event types.ProfileEvent) {
	if hooks.AfterProfileChange == nil {
		return
	}
	hooks.AfterProfileChange(ctx, event)
}

func emitPreferenceHook(ctx context.Context, hooks types.Hooks, event types.PreferenceEvent) {
	if hooks.AfterPreferenceChange == nil {
		return
	}
	hooks.AfterPreferenceChange(ctx, event)
}

func emitThemeHook(ctx context.Context, hooks types.Hooks, event types.ThemeEvent) {
	if hooks.AfterThemeChange == nil {
		return
	}
	hooks.AfterThemeChange(ctx, event)
}

func emitAvatarHook(ctx context.Context, hooks types.Hooks, event types.AvatarEvent) {
	if hooks.AfterAvatarChange == nil {
		return
	}
	hooks.AfterAvatarChange(ctx, event)
}

func emitSessionHook(ctx context.Context, hooks types.Hooks, event types.SessionEvent) {
	if hooks.AfterSessionRevoke == nil {
		return
	}
	hooks.AfterSessionRevoke(ctx, event)
}

func emitActivityHook(ctx context.Context, hooks types.Hooks, record types.ActivityRecord) {
	if hooks.AfterActivity == nil {
		return
	}
	hooks.AfterActivity(ctx, record)
}

package preferences

import (
	"github.com/goliatone/go-accounts/pkg/types"
	"github.com/google/uuid"
)

// Retention bounds for activity and session history, in days.
const (
	MinDataRetentionDays = 30
	MaxDataRetentionDays = 2555
)

// ClampDataRetention forces a retention period into the allowed range.
func ClampDataRetention(days int) int {
	if days < MinDataRetentionDays {
		return MinDataRetentionDays
	}
	if days > MaxDataRetentionDays {
		return MaxDataRetentionDays
	}
	return days
}

// Defaults returns the preference values assigned to a user who has never
// saved settings. The profile visibility default follows the tenancy mode:
// single-user deployments default to public, organization deployments to
// organization-only.
func Defaults(userID uuid.UUID, mode types.TenancyMode) types.Preferences {
	return types.Preferences{
		UserID: userID,
		Theme:  types.ThemeSystem,
		Locale: "en",
		Notifications: types.NotificationSettings{
			Email:          true,
			Push:           true,
			SecurityAlerts: true,
		},
		ProfileVisibility:  mode.DefaultVisibility(),
		EmailVisibility:    types.VisibilityPrivate,
		ActivityVisibility: types.VisibilityPrivate,
		QuietHours: types.QuietHours{
			Start: "22:00",
			End:   "07:00",
		},
		DataRetentionDays: 365,
	}
}

package preferences

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the user_preferences row. Exactly one row exists per user,
// enforced by the unique index on user_id.
type Record struct {
	bun.BaseModel `bun:"table:user_preferences"`

	ID                   uuid.UUID                 `bun:"id,pk,type:uuid"`
	UserID               uuid.UUID                 `bun:"user_id,type:uuid"`
	Theme                string                    `bun:"theme"`
	Locale               string                    `bun:"locale"`
	NotifyEmail          bool                      `bun:"notify_email"`
	NotifyPush           bool                      `bun:"notify_push"`
	NotifySMS            bool                      `bun:"notify_sms"`
	NotifyMarketing      bool                      `bun:"notify_marketing"`
	NotifySecurityAlerts bool                      `bun:"notify_security_alerts"`
	NotifyActivityDigest bool                      `bun:"notify_activity_digest"`
	ProfileVisibility    string                    `bun:"profile_visibility"`
	EmailVisibility      string                    `bun:"email_visibility"`
	ActivityVisibility   string                    `bun:"activity_visibility"`
	QuietHoursEnabled    bool                      `bun:"quiet_hours_enabled"`
	QuietHoursStart      string                    `bun:"quiet_hours_start"`
	QuietHoursEnd        string                    `bun:"quiet_hours_end"`
	ReduceMotion         bool                      `bun:"reduce_motion"`
	HighContrast         bool                      `bun:"high_contrast"`
	LargeText            bool                      `bun:"large_text"`
	DataRetentionDays    int                       `bun:"data_retention_days"`
	OrganizationContext  map[string]map[string]any `bun:"organization_context,type:jsonb"`
	CreatedAt            time.Time                 `bun:"created_at"`
	UpdatedAt            time.Time                 `bun:"updated_at"`
}

package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the user_sessions row. Revocation stamps revoked_at rather
// than deleting the row so dashboards keep the audit trail.
type Record struct {
	bun.BaseModel `bun:"table:user_sessions"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid"`
	DeviceType    string     `bun:"device_type"`
	DeviceName    string     `bun:"device_name"`
	Browser       string     `bun:"browser"`
	OS            string     `bun:"os"`
	IPAddress     string     `bun:"ip_address"`
	Location      string     `bun:"location"`
	IsCurrent     bool       `bun:"is_current"`
	IsTrusted     bool       `bun:"is_trusted"`
	LastSeenAt    time.Time  `bun:"last_seen_at"`
	CreatedAt     time.Time  `bun:"created_at"`
	RevokedAt     *time.Time `bun:"revoked_at"`
	RevokedReason string     `bun:"revoked_reason"`
}

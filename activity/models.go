package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in user_activity. Rows are append-only;
// nothing updates them after creation.
type LogEntry struct {
	bun.BaseModel `bun:"table:user_activity"`

	ID          uuid.UUID      `bun:",pk,type:uuid"`
	UserID      uuid.UUID      `bun:"user_id,type:uuid"`
	ActorID     uuid.UUID      `bun:"actor_id,type:uuid"`
	Action      string         `bun:"action"`
	Description string         `bun:"description"`
	Status      string         `bun:"status"`
	IPAddress   string         `bun:"ip_address"`
	DeviceType  string         `bun:"device_type"`
	OrgID       uuid.UUID      `bun:"org_id,type:uuid"`
	Data        map[string]any `bun:"data,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at"`
}

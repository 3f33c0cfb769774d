package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the organization_memberships row. Membership rows are owned
// by the host's organization system; this library only reads them.
type Record struct {
	bun.BaseModel `bun:"table:organization_memberships"`

	UserID         uuid.UUID `bun:"user_id,type:uuid,pk"`
	OrganizationID uuid.UUID `bun:"organization_id,type:uuid,pk"`
	Role           string    `bun:"role"`
	Permissions    []string  `bun:"permissions,type:jsonb"`
	JoinedAt       time.Time `bun:"joined_at"`
}

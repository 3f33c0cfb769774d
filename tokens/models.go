package tokens

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status tracks the lifecycle of a download token.
type Status string

const (
	StatusIssued  Status = "issued"
	StatusUsed    Status = "used"
	StatusRevoked Status = "revoked"
)

// ExportToken is a single-use token gating the download of a generated data
// export bundle. The JTI matches the claim embedded in the signed link so a
// consumed link cannot be replayed.
type ExportToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	JTI       string
	ObjectKey string
	Status    Status
	OrgID     uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record models the persisted export_tokens row.
type Record struct {
	bun.BaseModel `bun:"table:export_tokens"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	JTI       string     `bun:"jti,notnull"`
	ObjectKey string     `bun:"object_key"`
	Status    string     `bun:"status,notnull"`
	OrgID     uuid.UUID  `bun:"org_id,nullzero,type:uuid"`
	IssuedAt  *time.Time `bun:"issued_at,nullzero"`
	ExpiresAt *time.Time `bun:"expires_at,nullzero"`
	UsedAt    *time.Time `bun:"used_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at"`
}

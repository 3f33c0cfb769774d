package avatar

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the user_avatars row. The variants map stores variant name to
// object-store path for every processed size.
type Record struct {
	bun.BaseModel `bun:"table:user_avatars"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid"`
	UserID      uuid.UUID         `bun:"user_id,type:uuid"`
	StoragePath string            `bun:"storage_path"`
	Bucket      string            `bun:"bucket"`
	PublicURL   string            `bun:"public_url"`
	SizeBytes   int64             `bun:"size_bytes"`
	MimeType    string            `bun:"mime_type"`
	Width       int               `bun:"width"`
	Height      int               `bun:"height"`
	Variants    map[string]string `bun:"variants,type:jsonb"`
	ContentHash string            `bun:"content_hash"`
	IsActive    bool              `bun:"is_active"`
	IsApproved  bool              `bun:"is_approved"`
	OrgID       uuid.UUID         `bun:"org_id,type:uuid"`
	CreatedAt   time.Time         `bun:"created_at"`
}

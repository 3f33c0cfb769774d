package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the profiles row.
type Record struct {
	bun.BaseModel `bun:"table:profiles"`

	UserID      uuid.UUID `bun:"user_id,pk,type:uuid"`
	FirstName   string    `bun:"first_name"`
	LastName    string    `bun:"last_name"`
	DisplayName string    `bun:"display_name"`
	Bio         string    `bun:"bio"`
	Phone       string    `bun:"phone"`
	Website     string    `bun:"website"`
	JobTitle    string    `bun:"job_title"`
	Company     string    `bun:"company"`
	Department  string    `bun:"department"`
	Location    string    `bun:"location"`
	Timezone    string    `bun:"timezone"`
	Locale      string    `bun:"locale"`
	AvatarURL   string    `bun:"avatar_url"`
	OrgID       uuid.UUID `bun:"org_id,type:uuid"`
	CreatedAt   time.Time `bun:"created_at"`
	CreatedBy   uuid.UUID `bun:"created_by,type:uuid"`
	UpdatedAt   time.Time `bun:"updated_at"`
	UpdatedBy   uuid.UUID `bun:"updated_by,type:uuid"`
}

package goauth

import (
	"strings"

	"github.com/goliatone/go-accounts/pkg/types"
	auth "github.com/goliatone/go-auth"
)

// metadata keys recognized when seeding a profile from a go-auth user record.
const (
	metaPhone    = "phone"
	metaWebsite  = "website"
	metaJobTitle = "job_title"
	metaCompany  = "company"
	metaLocation = "location"
	metaTimezone = "timezone"
	metaLocale   = "locale"
)

// ProfileFromUser builds an account profile seeded from the go-auth user
// record. Name fields come from the auth row; the display name falls back to
// the username and finally the email local part. Optional attributes are read
// from the auth metadata map when present.
func ProfileFromUser(user *auth.User) types.Profile {
	if user == nil {
		return types.Profile{}
	}
	profile := types.Profile{
		UserID:      user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		DisplayName: displayName(user),
	}
	if len(user.Metadata) > 0 {
		profile.Phone = metaString(user.Metadata, metaPhone)
		profile.Website = metaString(user.Metadata, metaWebsite)
		profile.JobTitle = metaString(user.Metadata, metaJobTitle)
		profile.Company = metaString(user.Metadata, metaCompany)
		profile.Location = metaString(user.Metadata, metaLocation)
		profile.Timezone = metaString(user.Metadata, metaTimezone)
		profile.Locale = metaString(user.Metadata, metaLocale)
	}
	return profile
}

func displayName(user *auth.User) string {
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		return name
	}
	if user.Username != "" {
		return user.Username
	}
	if at := strings.Index(user.Email, "@"); at > 0 {
		return user.Email[:at]
	}
	return user.Email
}

func metaString(metadata map[string]any, key string) string {
	if raw, ok := metadata[key]; ok {
		if value, ok := raw.(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

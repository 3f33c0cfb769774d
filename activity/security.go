package activity

// Account action names recorded by the library's own workflows.
const (
	ActionProfileUpdated  = "profile.updated"
	ActionProfileDeleted  = "profile.deleted"
	ActionPrefsUpdated    = "preferences.updated"
	ActionPrefsReset      = "preferences.reset"
	ActionThemeChanged    = "preferences.theme_changed"
	ActionAvatarUploaded  = "avatar.uploaded"
	ActionAvatarActivated = "avatar.activated"
	ActionAvatarDeleted   = "avatar.deleted"
	ActionSessionRevoked  = "session.revoked"
	ActionSessionsRevoked = "session.revoked_all"
	ActionDataExported    = "account.data_exported"
	ActionAccountDeleted  = "account.deleted"
	ActionLogin           = "auth.login"
	ActionLoginFailed     = "auth.login_failed"
	ActionLogout          = "auth.logout"
	ActionPasswordChanged = "auth.password_changed"
	ActionMFAEnabled      = "auth.mfa_enabled"
	ActionMFADisabled     = "auth.mfa_disabled"
)

// securityActions is the allow-list backing the security events view. Only
// actions named here surface on the security tab; everything else stays in
// the general feed.
var securityActions = map[string]struct{}{
	ActionLogin:           {},
	ActionLoginFailed:     {},
	ActionLogout:          {},
	ActionPasswordChanged: {},
	ActionMFAEnabled:      {},
	ActionMFADisabled:     {},
	ActionSessionRevoked:  {},
	ActionSessionsRevoked: {},
	ActionDataExported:    {},
	ActionAccountDeleted:  {},
}

// SecurityActions returns the allow-listed security action names.
func SecurityActions() []string {
	out := make([]string, 0, len(securityActions))
	for action := range securityActions {
		out = append(out, action)
	}
	return out
}

// IsSecurityAction reports whether the action belongs to the security view.
func IsSecurityAction(action string) bool {
	_, ok := securityActions[action]
	return ok
}

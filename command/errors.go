package command

import (
	"errors"

	"github.com/goliatone/go-accounts/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrUserIDRequired occurs when commands omit the target user.
	ErrUserIDRequired = types.ErrUserIDRequired
	// ErrEmptyPatch indicates a profile update carried no writable fields.
	ErrEmptyPatch = errors.New("go-accounts: profile patch is empty")
	// ErrAvatarIDRequired occurs when avatar commands omit the avatar id.
	ErrAvatarIDRequired = errors.New("go-accounts: avatar id required")
	// ErrAvatarDataRequired occurs when an upload carries no image bytes.
	ErrAvatarDataRequired = errors.New("go-accounts: avatar image data required")
	// ErrAvatarUploadDisabled indicates avatar uploads are disabled via feature gate.
	ErrAvatarUploadDisabled = errors.New("go-accounts: avatar upload disabled")
	// ErrSessionIDRequired occurs when session commands omit the session id.
	ErrSessionIDRequired = errors.New("go-accounts: session id required")
	// ErrActivityActionRequired indicates an activity record is missing its action.
	ErrActivityActionRequired = errors.New("go-accounts: activity action required")
	// ErrDeleteNotConfirmed indicates the account deletion lacked confirmation.
	ErrDeleteNotConfirmed = errors.New("go-accounts: account deletion requires confirmation")
	// ErrInvalidTheme indicates the requested theme is not a known variant.
	ErrInvalidTheme = errors.New("go-accounts: invalid theme")
)

// Package command exposes go-command compatible command handlers implementing
// go-accounts business logic (profile updates, preference changes, avatar
// uploads, session revocation, account deletion). Commands are wired by the
// service layer and can be invoked by any transport.
package command

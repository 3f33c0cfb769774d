// Package manager exposes the profile aggregator: one entry point that
// assembles the account overview (profile, preferences, avatars, sessions,
// activity, organization context) for any tenancy mode. The mode is fixed at
// construction; the same manager code serves single-user, single-org, and
// multi-org deployments.
package manager

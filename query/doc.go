// Package query exposes go-command compatible read-side helpers backing the
// account dashboards (profile, preferences, sessions, activity, exports).
// Queries never mutate state; the data export query is the one exception in
// that it appends an audit record after assembling the bundle.
package query

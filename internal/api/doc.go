// Package api holds the JSON types the HTTP layer speaks and the converters
// that produce them. Web pages and the CLI render these DTOs instead of
// reaching into internal session models.
//
// # Key Types
//
// Session: transport representation of a session with stage flags, progress
// and timestamps.
//
// SessionStatus: the poll payload web pages request while a stage runs.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromSession: session.Session -> Session.
//
// FromSnapshot: session.Snapshot -> SessionStatus.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// DTOs use snake_case JSON tags matching the session store's column names, so
// the poll payload, the web form fields and the database speak one
// vocabulary. Internal enums (session.Status, session.Stage) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds. The error
// member of SessionStatus is always present and null until a stage fails, so
// poll consumers need only a truthiness test.
package api

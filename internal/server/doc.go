// Package server runs the daemon surface: the workflow manager, the
// browser flow, and the JSON status API in one lifecycle.
//
// A flock lock under the log directory guarantees a single instance per
// session store. The HTML pages walk an upload through the same state
// machine the CLI drives: intake creates the session, the process page
// starts and tracks the automated stages, and the title, description, and
// confirm pages drive the human steps through the shared workflow
// compositions. Confirmed uploads run in a background goroutine tied to the
// server's run context so a shutdown cancels them cleanly.
//
// The JSON endpoints under /api are pure reads. The per-session status
// endpoint is the polling contract for the process page and external
// watchers; it returns the snapshot booleans and a nullable error member,
// and never advances a session.
package server

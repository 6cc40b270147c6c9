// Package preflight provides readiness checks for the directories, external
// binaries and services the pipeline depends on.
//
// These checks run in two contexts:
//   - The workflow manager runs them once at startup and logs failures
//     instead of refusing to start; a session that needs the broken piece
//     still fails with its own actionable error.
//   - The CLI check command renders all of them and exits non-zero when a
//     required binary or directory is unavailable.
//
// Credential fallback files never gate startup because sessions may carry
// their own credentials.
package preflight

// Package notifications pushes workflow milestones to ntfy.
//
// Stage handlers call the Service interface instead of building HTTP requests
// themselves, which keeps message wording and emoji in one place. When no
// ntfy topic is configured the package hands back a no-op implementation, so
// notification calls never have to be guarded. Milestones that park the
// pipeline waiting on a person are sent at high priority.
//
// Other transports could satisfy Service too; nothing outside this package
// knows about ntfy.
package notifications

// Package session persists publishing sessions in SQLite and owns the
// workflow status graph.
//
// The Store is the only writer of session state. Status moves go through
// compare-and-set transitions that reject anything outside the workflow
// graph, stage completion flags only ever move from unset to set, and the
// first recorded error wins. Restart and retry logic derives where to resume
// from the completion flags so finished tool work is never repeated.
//
// The database lives next to the logs and is treated as operational state
// for in-flight sessions rather than a long-term archive. Schema changes add
// a migration under migrations/.
package session

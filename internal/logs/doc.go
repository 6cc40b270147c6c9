// Package logs reads the pipeline log file for the CLI.
//
// Tail returns the last lines of the file with bounded memory, and Follow
// polls for appended lines until its context is cancelled, surviving log
// rotation. Both treat a missing file as empty so the CLI works before the
// first run has logged anything.
package logs

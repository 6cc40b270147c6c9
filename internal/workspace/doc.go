// Package workspace manages per-session working directories and the fixed
// artifact names the pipeline stages agree on.
package workspace

// Package config loads, normalizes, and validates pipeline configuration.
//
// Settings come from a single TOML file with defaults covering every field.
// Normalization expands tilde shortcuts in path values to absolute paths and
// lowercases the log format and level strings before validation runs. The
// Config type is the one place the server and CLI look up workspace
// directories and external tool settings.
package config

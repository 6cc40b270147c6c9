// Package main hosts the video_pipeline CLI entrypoint and command graph.
//
// The Cobra-based command tree covers two modes. Invoked with a video file
// it runs the whole pipeline inline: color editing, transcription, chapter
// generation, the interactive title and description steps, and the YouTube
// upload. The subcommands manage the long-running flavor instead: serve
// runs the workers with the HTTP API and web UI, while status, sessions,
// check, logs, and config inspect and maintain the installation.
//
// Command functions here stay thin. Behavior belongs in the internal
// packages; this package parses flags, loads config, and formats output.
package main

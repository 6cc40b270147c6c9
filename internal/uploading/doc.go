// Package uploading publishes confirmed sessions to YouTube. The stage stages
// OAuth credentials into the session workspace, runs the upload tool with the
// edited video, transcript, description and optional thumbnail, and records
// the video ID the tool reports.
package uploading

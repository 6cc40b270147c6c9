// Package whisper wraps the external speech-to-text tool that produces
// SRT transcripts.
package whisper

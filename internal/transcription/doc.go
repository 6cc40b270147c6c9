// Package transcription runs speech recognition over the edited recording and
// leaves an SRT transcript in the session workspace for chapter generation and
// the eventual upload.
package transcription

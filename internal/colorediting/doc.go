// Package colorediting implements the first automated pipeline stage. It
// stages the source recording into the session workspace, runs the color_edit
// tool against it, and verifies the corrected output before the session moves
// on to transcription.
package colorediting

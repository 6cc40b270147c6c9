package deps

import (
	"fmt"
	"os/exec"
)

// CheckFFmpeg reports the ffmpeg binary the transcription stage depends on.
//
// Whisper does not read video containers itself; it shells out to an ffmpeg
// resolved from PATH to decode audio. When ffmpeg is missing the tool fails
// mid-session with an opaque decode error, so it is checked up front next to
// the binaries the pipeline invokes directly.
func CheckFFmpeg() Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by the transcription tool for audio decode",
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

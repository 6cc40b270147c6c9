package logging

import "strings"

// FormatSubject builds the session/stage subject string used in console
// output. Session IDs are shortened to their first segment for readability.
func FormatSubject(sessionID, stage string) string {
	sessionID = ShortSessionID(sessionID)
	stage = strings.TrimSpace(stage)
	switch {
	case sessionID != "" && stage != "":
		return "Session " + sessionID + " (" + stage + ")"
	case sessionID != "":
		return "Session " + sessionID
	case stage != "":
		return stage
	default:
		return ""
	}
}

// ShortSessionID returns the leading segment of a UUID-style identifier.
func ShortSessionID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

package session

// forwardTransitions is the legal status graph. Every automated stage moves
// start -> processing -> done; human steps advance one status at a time. The
// created -> color_edited edge exists for runs that skip color editing.
var forwardTransitions = map[Status][]Status{
	StatusCreated:              {StatusColorEditing, StatusColorEdited},
	StatusColorEditing:         {StatusColorEdited},
	StatusColorEdited:          {StatusTranscribing},
	StatusTranscribing:         {StatusTranscribed},
	StatusTranscribed:          {StatusGeneratingChapters},
	StatusGeneratingChapters:   {StatusChaptersReady},
	StatusChaptersReady:        {StatusAwaitingTitle},
	StatusAwaitingTitle:        {StatusAwaitingDescription},
	StatusAwaitingDescription:  {StatusAwaitingConfirmation},
	StatusAwaitingConfirmation: {StatusUploading},
	StatusUploading:            {StatusUploaded},
}

// CanTransition reports whether from -> to is a legal move. Any non-terminal
// status may fail; nothing leaves uploaded or failed except Retry.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RestartStatus derives where a retried session resumes from its completion
// flags. Completed stage artifacts stay trusted; only unfinished work reruns.
func RestartStatus(sess *Session) Status {
	switch {
	case sess.TitlesExtracted && sess.ChaptersDone:
		return StatusChaptersReady
	case sess.TranscriptionDone:
		return StatusTranscribed
	case sess.ColorEditDone:
		return StatusColorEdited
	default:
		return StatusCreated
	}
}

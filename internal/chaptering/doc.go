// Package chaptering runs the chapter maker tool over the transcript. The
// tool writes chapters.json with timestamped chapter markers and a list of
// suggested video titles; the session then parks until someone picks a title.
package chaptering

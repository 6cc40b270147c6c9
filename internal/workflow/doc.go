// Package workflow advances publishing sessions through the automated
// pipeline stages.
//
// The Manager polls the session store and feeds claimable sessions into the
// registered stage handlers (color editing, transcription, chaptering) while
// capturing progress and failure metadata. Several identical workers can run
// at once; the store's compare-and-set transitions arbitrate which worker
// wins a session, so a losing worker simply moves on to the next one.
//
// Sessions park once chapters are ready: title selection, description
// editing, and upload confirmation are human steps driven through the CLI or
// the web UI. The upload stage therefore never appears in the polling table;
// confirming a session triggers it directly via stageexec. Begin is the shared
// entry point that marks a session ready for the workers, including the
// skip-color-edit composition.
package workflow

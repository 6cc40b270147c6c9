// Package logging builds the slog loggers the pipeline runs on.
//
// Two handler flavors exist: a human-oriented console format and JSON for
// ingestion. Both write to the same destinations chosen by configuration,
// typically stderr plus video_pipeline.log. Context helpers stamp log lines
// with the session, stage, and request ID carried in a context.Context, and
// a discard logger is available for tests and wiring code that cannot fail.
//
// New components should obtain loggers here rather than configuring slog
// directly so every subsystem emits the same line shape.
package logging

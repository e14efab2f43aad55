// Package logging builds the shared slog logger and exposes typed attribute
// helpers so components log with consistent field names.
//
// Format "console" renders human-readable output, "json" emits structured
// records, and "auto" picks between them based on whether stdout is a
// terminal. All pipeline components attach a component attribute via
// NewComponentLogger; per-session operations add the session key so a single
// capture day can be traced across the frame store, the assembler, and the
// sweeper.
package logging

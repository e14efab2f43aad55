// Package catalog persists the lifecycle state of capture sessions in
// SQLite and exposes helpers for driving them forward.
//
// One row exists per session directory. The state column is the single
// authoritative lifecycle marker: the live capture loop holds its directory
// in StateOpen, and the backfill sweeper only ever operates on rows at
// StateClosed or later. Transitions are strictly forward and validated both
// in code and by a guarded UPDATE, so a stale writer can never move a
// session backward or skip a stage.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add states, update schema.sql and bump schemaVersion.
package catalog

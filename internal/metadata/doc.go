// Package metadata builds, caches, and restores the per-session frame
// table: one (frame, width, height) record per captured frame, persisted as
// an append-friendly CSV artifact next to the frames.
//
// Load resolves the table from the compressed artifact, the plain artifact,
// or a fresh scan of frame headers, in that order, so legacy directories
// that predate metadata reach the same result as live ones. Analyze derives
// the single target output resolution for a session from the table.
package metadata

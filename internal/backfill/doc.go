// Package backfill walks accumulated session directories and drives each
// one through the remaining lifecycle steps. It registers directories the
// catalog has never seen, generates missing frame metadata, assembles
// movies, archives finished sessions, and prunes directories past the
// retention window. Failures are recorded per session and never stop the
// sweep.
package backfill

// Package daemon runs the capture lifecycle: a single-instance lock, a
// frame-capture loop that rolls sessions over at midnight, and a periodic
// backfill sweep that finishes accumulated sessions.
package daemon

// Package services defines the error taxonomy shared by the capture
// pipeline.
//
// Sentinel errors classify failures so callers can decide whether a problem
// is fatal to one frame, one session, or the whole process. Wrap tags an
// error with its sentinel while preserving component and operation context
// for logs.
package services

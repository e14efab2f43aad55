// Package capture owns the live side of a session: it writes captured
// frames into the open session directory, appends one metadata record per
// frame, and synthesizes filler frames across blackout periods so frame
// numbering never drifts from wall-clock time.
//
// The OS screen-capture primitive is modeled as the narrow Source
// interface; the daemon supplies a real implementation and tests supply a
// stub. Only this package holds a session in the open lifecycle state.
package capture

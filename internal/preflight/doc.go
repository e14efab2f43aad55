// Package preflight verifies the environment before the daemon starts:
// directory permissions, free disk space, and the screenshot and encoder
// binaries. The daemon refuses to start on a failed check; the status
// command reuses the same checks for display.
package preflight

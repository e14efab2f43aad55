// Command ompd is the screen-capture lifecycle daemon and its CLI: the
// foreground daemon, a one-shot backfill sweep, and inspection commands
// for sessions, status, and configuration.
package main

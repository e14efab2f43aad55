// Package config loads, normalizes, and validates the TOML configuration
// that drives the capture daemon.
//
// Defaults live in defaults.go; Load overlays a config file on top of them,
// expands ~ in paths, and rejects unusable values (a non-positive scale
// factor, an unknown shot type). Every component receives the resulting
// Config explicitly; nothing reads scattered globals.
package config

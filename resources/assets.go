package resources

import "embed"

// Sounds holds the alert sounds played by the daemon.
//
//go:embed sounds/*.wav
var Sounds embed.FS

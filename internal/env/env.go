// Package env carries build metadata set at link time via -ldflags.
package env

// AppName is the program name shown in the startup banner and usage text.
const AppName = "mcafuse"

// Version, CommitHash and BuildTime are overridden at build time with
// -ldflags "-X github.com/mcafuse/mcafuse/internal/env.Version=...".
var (
	Version    = "dev"
	CommitHash = "none"
	BuildTime  = "unknown"
)

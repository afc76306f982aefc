package app

import "fmt"

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// VersionString is printed by -version.
func VersionString(name string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", name, BuildVersion, BuildCommit, BuildDate)
}

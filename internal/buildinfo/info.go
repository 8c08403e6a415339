// Package buildinfo carries the version stamped into gajana at link time.
package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/gajana-dev/gajana/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line shown by gajana --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// Package version carries build identification, set at release time via
// ldflags. The version string also keys the persisted state file so that
// incompatible schema versions never collide.
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

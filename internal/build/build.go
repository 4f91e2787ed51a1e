// Package build holds build-time information.
package build

// Build metadata. The defaults describe a development build; release builds
// overwrite them with linker flags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

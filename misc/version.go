// Package misc holds build information.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X rstyle/misc.version=... -X rstyle/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	return "rstyle"
}

func GetVersion() string {
	return version
}

// GetGitHash returns the commit the binary was built from, falling back to
// VCS information recorded by the go tool.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

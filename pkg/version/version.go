// Package version carries build metadata stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Build metadata. Set with
//
//	-ldflags "-X github.com/Sumatoshi-tech/removestar/pkg/version.Version=v1.0.0"
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("removestar %s (commit: %s, built: %s)", Version, Commit, Date)
}

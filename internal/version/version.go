// Package version reports the build of the asset bot.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is the git commit; filled from VCS build info when empty.
	CommitHash = ""
	// BuildTime is the commit time; filled from VCS build info when empty.
	BuildTime = ""
)

var loadOnce sync.Once

func load() {
	loadOnce.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	})
}

// ShortCommit returns the first seven characters of the commit hash.
func ShortCommit() string {
	load()
	if len(CommitHash) > 7 {
		return CommitHash[:7]
	}
	return CommitHash
}

// GetInfo returns "version (commit)" or just the version when the commit is unknown.
func GetInfo() string {
	res := Version
	if short := ShortCommit(); short != "" {
		res += fmt.Sprintf(" (%s)", short)
	}
	return res
}

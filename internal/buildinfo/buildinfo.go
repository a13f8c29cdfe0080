// Package buildinfo reports what binary is running. Release builds stamp
// the variables below with -ldflags; a plain `go build` or `go install`
// falls back to the module version and VCS settings the toolchain
// embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// Set with -ldflags "-X github.com/nawka12/AiChanWeb/internal/buildinfo.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

var startTime = time.Now()

// Build is the resolved metadata.
type Build struct {
	Version string
	Commit  string
	Branch  string
	Time    string
	// Dirty is set when the toolchain recorded uncommitted changes.
	Dirty bool
}

var resolve = sync.OnceValue(func() Build {
	bi, _ := debug.ReadBuildInfo()
	return fromBuildInfo(bi)
})

// fromBuildInfo fills whatever ldflags left at its default from bi.
func fromBuildInfo(bi *debug.BuildInfo) Build {
	b := Build{Version: Version, Commit: GitCommit, Branch: GitBranch, Time: BuildTime}
	if bi == nil {
		return b
	}
	if b.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
				if len(b.Commit) > 12 {
					b.Commit = b.Commit[:12]
				}
			}
		case "vcs.time":
			if b.Time == "unknown" {
				b.Time = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	return b
}

// Current returns the metadata of the running binary.
func Current() Build { return resolve() }

// Info returns build and runtime details keyed for the version endpoint
// and the version command's JSON output.
func Info() map[string]string {
	b := Current()
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return map[string]string{
		"version":    b.Version,
		"git_commit": commit,
		"git_branch": b.Branch,
		"build_time": b.Time,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     Uptime().String(),
	}
}

// Uptime is the time since process start, to the second.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// String is the one-line banner.
func String() string {
	b := Current()
	return fmt.Sprintf("AiChan %s (%s@%s) built %s", b.Version, b.Commit, b.Branch, b.Time)
}

// UserAgent is sent on every outbound request.
func UserAgent() string {
	return fmt.Sprintf("AiChan/%s (+https://github.com/nawka12/AiChanWeb)", Current().Version)
}

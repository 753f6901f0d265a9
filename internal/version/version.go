// Package version provides build information for the go6502 core
package version

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo returns build information, filling blanks from the
// toolchain's embedded VCS settings.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					info.BuildTime = setting.Value
				}
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}

	return info
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		info := GetBuildInfo()
		if len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
			return fmt.Sprintf("dev-%s", info.GitCommit[:7])
		}
	}
	return Version
}

// GetDetailedVersion returns a one-line description of the build
func GetDetailedVersion() string {
	info := GetBuildInfo()

	s := fmt.Sprintf("go6502 version %s", info.Version)

	if info.GitCommit != "unknown" {
		commit := info.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += fmt.Sprintf(" (commit %s", commit)
		if info.Modified {
			s += ", modified"
		}
		s += ")"
	}

	if info.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			s += fmt.Sprintf(" built on %s", t.Format("2006-01-02 15:04:05"))
		} else {
			s += fmt.Sprintf(" built on %s", info.BuildTime)
		}
	}

	return s + fmt.Sprintf(" with %s for %s/%s", info.GoVersion, info.Platform, info.Arch)
}

// LogAttrs returns the build information as log attributes.
func LogAttrs() []any {
	info := GetBuildInfo()
	return []any{
		slog.String("version", GetVersion()),
		slog.String("commit", info.GitCommit),
		slog.String("go", info.GoVersion),
	}
}

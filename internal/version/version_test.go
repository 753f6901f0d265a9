package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("Platform = %s/%s, want %s/%s", info.Platform, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestGetVersionReleased(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "1.2.3"
	if v := GetVersion(); v != "1.2.3" {
		t.Errorf("GetVersion() = %q, want 1.2.3", v)
	}
}

func TestGetDetailedVersion(t *testing.T) {
	savedVersion, savedCommit, savedTime := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = savedVersion, savedCommit, savedTime }()

	Version = "0.4.0"
	GitCommit = "0123456789abcdef"
	BuildTime = "2024-03-01T12:30:00Z"

	s := GetDetailedVersion()
	for _, want := range []string{"go6502 version 0.4.0", "commit 0123456", "built on 2024-03-01 12:30:00", runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(s, want) {
			t.Errorf("GetDetailedVersion() = %q, missing %q", s, want)
		}
	}
}

func TestLogAttrs(t *testing.T) {
	if n := len(LogAttrs()); n != 3 {
		t.Errorf("LogAttrs() returned %d attrs, want 3", n)
	}
}

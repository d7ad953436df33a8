package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	defer func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	}()

	Version = "1.2.3"
	Commit = "abc1234"
	BuildTime = "2026-01-01T00:00:00Z"

	got := String()
	want := "stockseed 1.2.3 (abc1234) built 2026-01-01T00:00:00Z " + runtime.Version()
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaults(t *testing.T) {
	if Version == "" || Commit == "" || BuildTime == "" {
		t.Errorf("build variables must not be empty: %q %q %q", Version, Commit, BuildTime)
	}
	if !strings.HasPrefix(String(), "stockseed ") {
		t.Errorf("String() = %q, want stockseed prefix", String())
	}
}

// Package sysinfo reports facts about the host operating system.
package sysinfo

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strconv"

	"github.com/dixieflatline76/SpiceLock/pkg/execx"
)

// matches "14.5", "15.0.1" or "26.0"
var versionRegex = regexp.MustCompile(`^\s*(\d+)\.(\d+)(?:\.(\d+))?`)

// MinLockScreenMajor is the first macOS release whose lock screen plays
// idle assets from the customer catalog.
const MinLockScreenMajor = 14

// OSVersion is a macOS product version.
type OSVersion struct {
	Major, Minor, Patch int
}

func (v OSVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// SupportsLockScreen reports whether v plays custom idle assets.
func (v OSVersion) SupportsLockScreen() bool {
	return v.Major >= MinLockScreenMajor
}

// GetOSVersion returns the macOS product version as reported by sw_vers.
func GetOSVersion(ctx context.Context, runner execx.Runner) (OSVersion, error) {
	if runtime.GOOS != "darwin" {
		return OSVersion{}, fmt.Errorf("os version: unsupported platform %s", runtime.GOOS)
	}
	out, err := runner.Run(ctx, "sw_vers", "-productVersion")
	if err != nil {
		return OSVersion{}, fmt.Errorf("failed to run sw_vers: %w", err)
	}
	return parseVersion(string(out))
}

func parseVersion(s string) (OSVersion, error) {
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return OSVersion{}, fmt.Errorf("failed to parse os version from string: %q", s)
	}
	var v OSVersion
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// Package prereqs checks the host platform before the epoch engine services start.
package prereqs

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "prereqs")

type platform struct {
	os   string
	arch string
	// minVersion is the minimal macOS product version, major then minor.
	minVersion []int
}

func (p platform) String() string {
	if len(p.minVersion) == 0 {
		return fmt.Sprintf("%s/%s", p.os, p.arch)
	}
	return fmt.Sprintf("%s/%s (%d.%d+)", p.os, p.arch, p.minVersion[0], p.minVersion[1])
}

var (
	// execShellOutput is swapped out in tests.
	execShellOutput = execShellOutputFunc
	runtimeOS       = runtime.GOOS
	runtimeArch     = runtime.GOARCH
)

func execShellOutputFunc(ctx context.Context, command string, args ...string) (string, error) {
	result, err := exec.CommandContext(ctx, command, args...).Output() // #nosec G204
	if err != nil {
		return "", errors.Wrap(err, "could not run command")
	}
	return string(result), nil
}

var supportedPlatforms = []platform{
	{os: "linux", arch: "amd64"},
	{os: "linux", arch: "arm64"},
	{os: "darwin", arch: "amd64", minVersion: []int{10, 14}},
	{os: "darwin", arch: "arm64", minVersion: []int{11, 0}},
	{os: "windows", arch: "amd64"},
}

// parseVersion splits input on sep and returns the first num components as integers.
func parseVersion(input string, num int, sep string) ([]int, error) {
	components := strings.Split(strings.TrimSpace(input), sep)
	if len(components) < num {
		return nil, errors.New("insufficient information about version")
	}
	version := make([]int, num)
	for i := range version {
		v, err := strconv.Atoi(strings.TrimSpace(components[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse version component %q", components[i])
		}
		version[i] = v
	}
	return version, nil
}

func atLeast(version, min []int) bool {
	for i := range min {
		if version[i] != min[i] {
			return version[i] > min[i]
		}
	}
	return true
}

// meetsMinPlatformReqs reports whether the host matches a supported platform.
func meetsMinPlatformReqs(ctx context.Context) (bool, error) {
	for _, p := range supportedPlatforms {
		if runtimeOS != p.os || runtimeArch != p.arch {
			continue
		}
		if len(p.minVersion) == 0 {
			return true, nil
		}
		out, err := execShellOutput(ctx, "sw_vers", "-productVersion")
		if err != nil {
			return false, errors.Wrap(err, "could not obtain macOS version")
		}
		version, err := parseVersion(out, len(p.minVersion), ".")
		if err != nil {
			return false, errors.Wrap(err, "could not parse macOS version")
		}
		return atLeast(version, p.minVersion), nil
	}
	return false, nil
}

// WarnIfPlatformNotSupported logs a warning when the host is not a supported platform or
// cannot be detected. It never prevents startup.
func WarnIfPlatformNotSupported(ctx context.Context) {
	supported, err := meetsMinPlatformReqs(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to detect host platform")
		return
	}
	if supported {
		return
	}
	names := make([]string, len(supportedPlatforms))
	for i, p := range supportedPlatforms {
		names[i] = p.String()
	}
	log.WithFields(logrus.Fields{
		"os":        runtimeOS,
		"arch":      runtimeArch,
		"supported": strings.Join(names, ", "),
	}).Warn("This platform is not supported")
}

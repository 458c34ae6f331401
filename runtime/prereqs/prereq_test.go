package prereqs

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func setPlatform(t *testing.T, os, arch string, version func(context.Context, string, ...string) (string, error)) {
	prevOS, prevArch, prevExec := runtimeOS, runtimeArch, execShellOutput
	t.Cleanup(func() { runtimeOS, runtimeArch, execShellOutput = prevOS, prevArch, prevExec })
	runtimeOS, runtimeArch = os, arch
	if version != nil {
		execShellOutput = version
	}
}

func productVersion(v string) func(context.Context, string, ...string) (string, error) {
	return func(context.Context, string, ...string) (string, error) {
		return v, nil
	}
}

func TestMeetsMinPlatformReqs(t *testing.T) {
	tests := []struct {
		name    string
		os      string
		arch    string
		exec    func(context.Context, string, ...string) (string, error)
		want    bool
		wantErr string
	}{
		{name: "linux amd64", os: "linux", arch: "amd64", want: true},
		{name: "linux arm64", os: "linux", arch: "arm64", want: true},
		{name: "linux mips64", os: "linux", arch: "mips64", want: false},
		{name: "windows amd64", os: "windows", arch: "amd64", want: true},
		{name: "windows arm64", os: "windows", arch: "arm64", want: false},
		{name: "macOS too old", os: "darwin", arch: "amd64", exec: productVersion("10.13.6\n"), want: false},
		{name: "macOS minimum", os: "darwin", arch: "amd64", exec: productVersion("10.14"), want: true},
		{name: "macOS newer major", os: "darwin", arch: "amd64", exec: productVersion("12.1"), want: true},
		{name: "apple silicon", os: "darwin", arch: "arm64", exec: productVersion("14.2.1"), want: true},
		{name: "apple silicon too old", os: "darwin", arch: "arm64", exec: productVersion("10.15"), want: false},
		{
			name: "macOS version command fails", os: "darwin", arch: "amd64",
			exec: func(context.Context, string, ...string) (string, error) {
				return "", errors.New("command not found")
			},
			wantErr: "could not obtain macOS version",
		},
		{name: "macOS version garbage", os: "darwin", arch: "amd64", exec: productVersion("tiger.lion"), wantErr: "could not parse macOS version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setPlatform(t, tt.os, tt.arch, tt.exec)
			got, err := meetsMinPlatformReqs(context.Background())
			if tt.wantErr != "" {
				require.ErrorContains(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVersion(t *testing.T) {
	version, err := parseVersion("1.2.3", 3, ".")
	require.NoError(t, err)
	require.DeepEqual(t, []int{1, 2, 3}, version)

	version, err = parseVersion(" 6 .7 . 8  ", 3, ".")
	require.NoError(t, err)
	require.DeepEqual(t, []int{6, 7, 8}, version)

	version, err = parseVersion("4;6;8;10;11", 3, ";")
	require.NoError(t, err)
	require.DeepEqual(t, []int{4, 6, 8}, version)

	_, err = parseVersion("10.11", 3, ".")
	require.ErrorContains(t, "insufficient information about version", err)
}

func TestWarnIfPlatformNotSupported(t *testing.T) {
	setPlatform(t, "linux", "amd64", nil)
	hook := logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsDoNotContain(t, hook, "Failed to detect host platform")
	require.LogsDoNotContain(t, hook, "platform is not supported")

	setPlatform(t, "darwin", "amd64", productVersion("tiger.lion"))
	hook = logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "Failed to detect host platform")

	setPlatform(t, "plan9", "386", nil)
	hook = logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "This platform is not supported")
	require.LogsContain(t, hook, "darwin/arm64 (11.0+)")
}

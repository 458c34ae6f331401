package version

import (
	"fmt"
	"strconv"
	"time"
)

// The value of these vars are set through linker options, e.g.
// -ldflags "-X github.com/prysmaticlabs/epoch-engine/runtime/version.gitTag=v0.1.0".
var gitCommit = "Local build"
var buildDate = "Moments ago"
var buildDateUnix = "0"
var gitTag = "Unknown"

// Version returns the version string of this build.
func Version() string {
	if buildDate == "{DATE}" {
		now := time.Now()
		buildDate = now.Format(time.RFC3339)
		buildDateUnix = strconv.FormatInt(now.Unix(), 10)
	}
	return fmt.Sprintf("%s. Built at: %s", BuildData(), buildDate)
}

// SemanticVersion returns the Major.Minor.Patch version of this build.
func SemanticVersion() string {
	return gitTag
}

// BuildData returns the git tag and commit of the current build.
func BuildData() string {
	return fmt.Sprintf("EpochEngine/%s/%s", gitTag, gitCommit)
}

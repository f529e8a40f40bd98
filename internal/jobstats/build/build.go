package build

import "runtime"

// Set at link time, e.g. -ldflags "-X github.com/G-Research/jobstats/internal/jobstats/build.ReleaseVersion=1.0.0".
var (
	ReleaseVersion = "UNKNOWN_VERSION"
	GitCommit      = "UNKNOWN_COMMIT"
	BuildTime      = "UNKNOWN_BUILDTIME"
	GoVersion      = runtime.Version()
)

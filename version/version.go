package version

import "fmt"

// set via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit: %s, build date: %s)", Version, GitCommit, BuildDate)

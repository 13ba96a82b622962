// Package version reports build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Product is the name reported by the binaries.
const Product = "Timecode"

// Set at build time, e.g.
//
//	-ldflags "-X github.com/zsiec/timecode/pkg/version.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info contains version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the version information of the running binary.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s, %s)",
		Product, i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}

// Short returns the product name and version.
func (i Info) Short() string {
	return Product + " " + i.Version
}

// Package version reports build information for the prisma-edge binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/satishbabariya/prisma-edge/connector/mysql"
)

// Set with -ldflags "-X .../version.Version=...".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = ""
)

// Info describes the running binary and the server it needs.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
	// MinServer is the oldest MySQL release the connector accepts.
	MinServer string
}

// Get collects Info. Without an injected commit the VCS revision stamped by
// the Go toolchain is used.
func Get() Info {
	commit := GitCommit
	if commit == "" {
		commit = vcsRevision()
	}
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		MinServer: mysql.MinServerVersion,
	}
}

func vcsRevision() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				return s.Value[:12]
			}
		}
	}
	return "unknown"
}

func (i Info) String() string {
	return fmt.Sprintf("prisma-edge %s (%s, %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString renders one "label: value" line per field.
func (i Info) FullString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "prisma-edge %s\n", i.Version)
	for _, row := range [][2]string{
		{"commit", i.GitCommit},
		{"built", i.BuildDate},
		{"go", i.GoVersion},
		{"platform", i.Platform},
		{"mysql", ">= " + i.MinServer},
	} {
		fmt.Fprintf(&b, "  %-9s%s\n", row[0]+":", row[1])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

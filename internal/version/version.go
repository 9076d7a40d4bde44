package version

import (
	"fmt"
	"runtime/debug"

	"github.com/larsks/gobot/tools"
)

var (
	Version string = "dev"
)

// BuildInfo returns the build settings embedded by the Go toolchain, or nil
// when the binary carries none.
func BuildInfo() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return tools.BuildInfoMap(bi)
}

func GetVersion(progName string) string {
	return format(progName, BuildInfo())
}

func format(progName string, bim map[string]string) string {
	vs := fmt.Sprintf("%s version %s", progName, Version)
	if bim == nil {
		return vs
	}

	vs = fmt.Sprintf("%s %s/%s", vs, bim["GOOS"], bim["GOARCH"])
	if bim["vcs"] == "git" {
		rev := bim["vcs.revision"]
		if len(rev) > 10 {
			rev = rev[:10]
		}
		vs = fmt.Sprintf("%s rev %s on %s", vs, rev, bim["vcs.time"])
		if bim["vcs.modified"] == "true" {
			vs += " (modified)"
		}
	}
	return vs
}

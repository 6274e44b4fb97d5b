package metadata

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	version     string
	versionOnce sync.Once
)

// moduleVersion returns the library version detected from module build info.
func moduleVersion() string {
	versionOnce.Do(func() {
		version = detectVersion()
	})
	return version
}

// detectVersion attempts to get the module version from build info.
func detectVersion() string {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		// Look for our module in the dependencies (works when used as a
		// module dependency)
		for _, dep := range buildInfo.Deps {
			if strings.Contains(dep.Path, "blaxel-ai/metadata") {
				if dep.Version != "" && dep.Version != "(devel)" {
					return strings.TrimPrefix(dep.Version, "v")
				}
			}
		}

		// If this is the main module and has version info
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return strings.TrimPrefix(buildInfo.Main.Version, "v")
		}
	}

	return "dev"
}

// userAgent derives the User-Agent sent with every request: the
// library's identity, optionally prefixed with the caller's.
func (c *Client) userAgent() string {
	ua := fmt.Sprintf("metadata-go/%s (%s/%s)", moduleVersion(), runtime.GOOS, runtime.GOARCH)
	if c.userAgentSuffix != "" {
		ua = c.userAgentSuffix + " " + ua
	}
	return ua
}

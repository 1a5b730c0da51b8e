// Package buildinfo holds build metadata set with -ldflags, for example
//
//	-X github.com/garyellow/aulabot-go/internal/buildinfo.Version=v1.2.0
package buildinfo

import (
	"runtime/debug"
	"strings"
)

var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Release returns Version, falling back to the module version recorded by
// the Go toolchain and then "dev".
func Release() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

// String describes the build on one line.
func String() string {
	parts := []string{"aulabot", Release()}
	if Commit != "" {
		parts = append(parts, "commit "+Commit)
	}
	if BuildDate != "" {
		parts = append(parts, "built "+BuildDate)
	}
	return strings.Join(parts, " ")
}

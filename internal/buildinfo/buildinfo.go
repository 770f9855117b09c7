// Package buildinfo contains build-time metadata separate from user
// configuration.
package buildinfo

import "runtime"

// Injected at build time via -ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
)

// Context carries build-time metadata injected at application startup.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// GoVersion is the toolchain the binary was built with
	GoVersion string
}

// New returns the build context of the running binary.
func New() *Context {
	return &Context{
		Version:   version,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
}

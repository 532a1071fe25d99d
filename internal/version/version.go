// Package version records build metadata, overridable via -ldflags.
package version

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	// Version is the semver of this build.
	Version = "0.3.0"
	// GitCommit is the short commit hash, set at build time.
	GitCommit = ""
	// BuildDate is the build timestamp, set at build time.
	BuildDate = ""
)

// String returns the semver string exposed through the FFI boundary.
func String() string {
	return Version
}

// Banner writes the human version banner.
func Banner(w io.Writer, colorize bool) {
	name := "memoc"
	if colorize {
		name = color.New(color.FgMagenta, color.Bold).Sprint(name)
	}
	fmt.Fprintf(w, "%s %s", name, Version)
	if GitCommit != "" {
		fmt.Fprintf(w, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(w, " built %s", BuildDate)
	}
	fmt.Fprintln(w)
}

// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Markers controls whether per-frame marker logs are shown (ids, centers, range).
// Use --debug-markers flag to enable these very verbose logs
var Markers bool

// Out receives debug output
var Out io.Writer = os.Stdout

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(Out, format, args...)
	}
}

// MarkerLog prints a message only if marker debug mode is enabled
func MarkerLog(format string, args ...interface{}) {
	if Markers {
		fmt.Fprintf(Out, format, args...)
	}
}

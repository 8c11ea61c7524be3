// Package version reports the build identity of the corevm runtime.
package version

import "fmt"

const (
	VERSION = "0.1.0"
	COMMIT  = "dev"
	BUILT   = ""
)

// Version returns a human-readable version string for CLI banners.
func Version() string {
	return fmt.Sprintf("%s (%s)", VERSION, BUILT)
}

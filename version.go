// Package linkdeck holds the release version of the agent runtime.
package linkdeck

// Version is the current release.
const Version = "0.3.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

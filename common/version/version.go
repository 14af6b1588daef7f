// Package version carries distant's release version, used by every
// cmd/distant-* binary's --version output and logged once at startup by
// distant-server.
// Grounded on common/version/latest_version.go, trimmed to the parts with
// an analogue here: this system has no phone app polling an S3 bucket for
// updates, so the HTTP fetch/cache-to-disk machinery (GetLatestVersions,
// CheckIfUpdateAvailable) is dropped rather than adapted — nothing here
// checks for a newer release, only a fixed version string each binary
// reports.
package version

import (
	"github.com/blang/semver"
)

// Current is this build's version. Binaries embed it via cmd/*/main.go's
// cli.App.Version field.
var Current = semver.MustParse("0.1.0")

// String returns the version in semver form, e.g. "0.1.0".
func String() string {
	return Current.String()
}

// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli and gui packages.
package version

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v1.2.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// SDKVersion is the version of the sync engine the shell was built against.
var SDKVersion = "engine-local"

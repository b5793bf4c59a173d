package version

// Version is the current version of argo-forecast.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-forecast/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current version of the CLI.
func GetVersion() string {
	return Version
}

// IsDevelopment reports whether this is an unversioned development build.
func IsDevelopment() bool {
	return Version == "main" || Version == ""
}

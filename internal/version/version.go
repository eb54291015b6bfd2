package version

// Version is the current version of the keel-trading engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/keel-lab/keel-trading/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v1.2.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}

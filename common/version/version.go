package version

import "fmt"

// VERSION and GITCOMMIT are injected at build time with -ldflags "-X".
var (
	// VERSION is the major.minor.patch version the binary was built from.
	VERSION string
	// GITCOMMIT is the 12 character git hash the binary was built from.
	GITCOMMIT string
)

// VersionToString describes the build, or returns "dev" for binaries built without version information.
func VersionToString() string {
	switch {
	case VERSION == "" && GITCOMMIT == "":
		return "dev"
	case GITCOMMIT == "":
		return VERSION
	default:
		return fmt.Sprintf("%s - %s", VERSION, GITCOMMIT)
	}
}

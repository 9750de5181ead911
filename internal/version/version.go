package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

func GetInfo() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

package system

var (
	// The current version of this software.
	Version = "develop"
)

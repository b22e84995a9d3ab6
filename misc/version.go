// Package misc keeps build time program identification.
package misc

// set by linker: -X svcdeck/misc.version=... -X svcdeck/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return "svcdeck"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

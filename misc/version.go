// Package misc keeps build information.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// set by linker
var (
	appName = ""
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns program name, either set at build time or derived from
// executable name.
func GetAppName() string {
	if len(appName) > 0 {
		return appName
	}
	name := filepath.Base(os.Args[0])
	if n := strings.TrimSuffix(name, filepath.Ext(name)); len(n) > 0 {
		return n
	}
	return "remtorpx"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

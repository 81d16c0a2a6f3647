package version

import (
	"fmt"
	"strings"
	"sync"
)

// validCharacters are the characters allowed in appBuild
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild can be set at build time with
// '-ldflags "-X github.com/unitdag/unitd/version.appBuild=foo"'.
// It is ignored unless it only contains validCharacters.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version, with the build metadata appended
// when there is any
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if isValidAppBuild(appBuild) {
			version = fmt.Sprintf("%s-%s", version, appBuild)
		}
	})
	return version
}

func isValidAppBuild(build string) bool {
	if build == "" {
		return false
	}
	for _, r := range build {
		if !strings.ContainsRune(validCharacters, r) {
			return false
		}
	}
	return true
}

// Package version holds the build version of cubes.
package version

// version is set using -ldflags "-X go.minekube.com/cubes/pkg/version.version=v1.2.3".
var version = "unknown"

func String() string {
	return version
}

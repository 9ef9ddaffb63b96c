// Package build holds version information injected via ldflags:
//
//	go build -ldflags "-X github.com/RyanBlaney/sonido-plagio/cmd/sonido-plagio/internal/build.Version=v1.0.0 \
//	  -X github.com/RyanBlaney/sonido-plagio/cmd/sonido-plagio/internal/build.Commit=$(git rev-parse --short HEAD)"
package build

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a formatted version string.
func String() string {
	return fmt.Sprintf("sonido-plagio %s (%s) built %s %s/%s",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

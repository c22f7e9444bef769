// Package version exposes the build metadata stamped into servicekit
// binaries.
//
// Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "\
//	  -X github.com/vaultpass/servicekit/version.Version=1.2.0 \
//	  -X github.com/vaultpass/servicekit/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/vaultpass/servicekit/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds fall back to the VCS settings the Go toolchain embeds, so
// a plain `go build` inside a git checkout still reports a usable commit.
// The runtime uses Get().Short() as the default service version and the
// diagnostics server serves the full Info at /version.
package version

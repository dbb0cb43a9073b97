// Package buildinfo holds version metadata set at build time via ldflags.
package buildinfo

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/scottpeterman/velocitycmdb/internal/buildinfo.Version=v1.0.0 \
//	  -X github.com/scottpeterman/velocitycmdb/internal/buildinfo.GitCommit=abc1234 \
//	  -X github.com/scottpeterman/velocitycmdb/internal/buildinfo.BuildDate=2026-07-31"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single-line human-readable build summary for --version
// output.
func Info() string {
	return fmt.Sprintf("velocitycmdb %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}

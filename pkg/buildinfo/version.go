// Package buildinfo holds the version stamped into latex2image at build time.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/latex2image/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/latex2image/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/latex2image/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/latex2image
package buildinfo

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp in RFC 3339.
	Date = "unknown"
)

// shortCommit is how many characters of Commit Short keeps.
const shortCommit = 7

// Short returns the version with an abbreviated commit, e.g. "v1.0.0 (3f2a9c1)".
// The commit is omitted when it was not stamped.
func Short() string {
	if Commit == "" || Commit == "none" {
		return Version
	}
	c := Commit
	if len(c) > shortCommit {
		c = c[:shortCommit]
	}
	return fmt.Sprintf("%s (%s)", Version, c)
}

// Template returns the version template for cobra's --version output.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

package accrual

// Release of this build. GitCommit is filled in by the linker:
//
//	go build -ldflags "-X github.com/iov-one/accrual.GitCommit=$(git rev-parse --short HEAD)"
var (
	release   = "v0.1.0-dev"
	GitCommit = ""
)

// Version returns the release, followed by the commit when known.
func Version() string {
	if GitCommit == "" {
		return release
	}
	return release + " " + GitCommit
}

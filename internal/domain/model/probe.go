package model

import (
	"path"
	"strings"
)

// ComposeFileName is the compose file the indexer looks for in a repository.
const ComposeFileName = "docker-compose.yml"

// ProbeResult is the outcome of checking a registered repository against its
// remote: whether the branch exists and whether the compose file is present.
type ProbeResult struct {
	RepoID        string
	Branch        ProbeStatus
	BranchDetail  string
	Compose       ProbeStatus
	ComposeDetail string
	ComposePath   string
}

// ComposePath returns the path of the compose file inside the repository for
// the given compose folder.
func ComposePath(folder *string) string {
	if folder == nil {
		return ComposeFileName
	}
	f := strings.Trim(strings.TrimSpace(*folder), "/")
	if f == "" {
		return ComposeFileName
	}
	return path.Join(f, ComposeFileName)
}

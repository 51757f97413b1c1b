package model

import "time"

// IndexEntry is the compose file the indexer fetched for a registered
// repository. There is at most one entry per repository.
type IndexEntry struct {
	RepoID      string
	ComposePath string
	Content     string
	IndexedAt   time.Time
	UpdatedAt   time.Time
}

// IndexStatus is the outcome of indexing one repository.
type IndexStatus string

const (
	// IndexStored means the compose file was fetched and the entry written.
	IndexStored IndexStatus = "stored"
	// IndexKept means an entry already existed and the scan was not forced.
	IndexKept IndexStatus = "kept"
	// IndexMissing means the compose file is not on the repository's branch.
	IndexMissing IndexStatus = "missing"
	// IndexSkipped means the repository's host cannot be indexed.
	IndexSkipped IndexStatus = "skipped"
	// IndexFailed means the credential or the fetch failed.
	IndexFailed IndexStatus = "failed"
)

// IndexOutcome reports what a scan did with one repository.
type IndexOutcome struct {
	RepoID      string
	Name        string
	ComposePath string
	Status      IndexStatus
	Detail      string
}

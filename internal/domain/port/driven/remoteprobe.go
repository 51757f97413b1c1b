package driven

import (
	"context"
	"errors"
)

// ErrUnsupportedHost is returned by a ComposeLocator that cannot inspect
// repositories on the URL's host.
var ErrUnsupportedHost = errors.New("unsupported repository host")

// ErrFileNotFound is returned by a ComposeFetcher when path is not a file on
// the branch.
var ErrFileNotFound = errors.New("file not found")

// RemoteInspector lists the branches advertised by a git remote.
type RemoteInspector interface {
	Branches(ctx context.Context, url string) ([]string, error)
}

// ComposeLocator reports whether a file exists at path on branch of the
// repository at url.
type ComposeLocator interface {
	FileExists(ctx context.Context, url, branch, path string) (bool, error)
}

// ComposeFetcher reads the file at path on branch of the repository at url.
type ComposeFetcher interface {
	FetchFile(ctx context.Context, url, branch, path string) ([]byte, error)
}

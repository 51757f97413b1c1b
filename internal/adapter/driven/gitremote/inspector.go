// Package gitremote implements the RemoteInspector port with go-git, listing
// remote references without cloning.
package gitremote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RemoteInspector = (*Inspector)(nil)

// Inspector lists the branches of a git remote, the equivalent of
// `git ls-remote --heads`.
type Inspector struct {
	logger *slog.Logger
}

// NewInspector creates an Inspector.
func NewInspector(logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{logger: logger}
}

// Branches returns the sorted short names of the branches advertised by the
// remote at url. An empty remote has no branches and is not an error.
func (i *Inspector) Branches(ctx context.Context, url string) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	})

	i.logger.Debug("listing remote references", "url", url)

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return []string{}, nil
		}
		if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
			return nil, fmt.Errorf("listing %s: remote requires credentials: %w", url, err)
		}
		return nil, fmt.Errorf("listing %s: %w", url, err)
	}

	branches := []string{}
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			branches = append(branches, ref.Name().Short())
		}
	}
	sort.Strings(branches)

	return branches, nil
}

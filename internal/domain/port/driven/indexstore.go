package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// ErrIndexEntryNotFound indicates no index entry exists for the repository.
var ErrIndexEntryNotFound = errors.New("index entry not found")

// IndexStore defines the driven port for the indexer's compose file index.
// Put inserts or replaces the entry for entry.RepoID; a replaced entry keeps
// its original IndexedAt.
type IndexStore interface {
	Get(ctx context.Context, repoID string) (*model.IndexEntry, error)
	Put(ctx context.Context, entry model.IndexEntry) (*model.IndexEntry, error)
	List(ctx context.Context) ([]model.IndexEntry, error)
}

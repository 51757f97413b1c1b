package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// Sentinel errors returned by RepoStore implementations.
var (
	// ErrRepoNotFound indicates the requested repository does not exist.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrRepoAlreadyExists indicates a repository with the same url and name already exists.
	ErrRepoAlreadyExists = errors.New("repository already exists")
)

// RepoStore defines the driven port for the indexer's repository persistence.
// Create assigns the ID and timestamps and returns ErrRepoAlreadyExists when the
// (url, name) pair is taken. Update and Delete return ErrRepoNotFound for
// unknown ids. MarkIndexed sets indexed_at and updated_at to at and returns
// ErrRepoNotFound for unknown ids.
type RepoStore interface {
	Create(ctx context.Context, repo model.Repository) (*model.Repository, error)
	Update(ctx context.Context, repo model.Repository) (*model.Repository, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Repository, error)
	List(ctx context.Context) ([]model.Repository, error)
	MarkIndexed(ctx context.Context, id string, at time.Time) error
}

package driven

import (
	"context"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// RepositoryAPI defines the driven port for the remote repository collection
// exposed by the indexer. Cancelling ctx aborts the request; a cancelled call
// returns the context error and no result.
//
// Create and Update return a nil record without error when the server accepted
// the request but did not echo the stored record.
type RepositoryAPI interface {
	List(ctx context.Context) ([]model.Repository, error)
	Create(ctx context.Context, draft model.Draft) (*model.Repository, error)
	Update(ctx context.Context, id string, draft model.Draft) (*model.Repository, error)
	Delete(ctx context.Context, id string) error
}

// CredentialDirectory lists the credential names known to the indexer so forms
// can offer them. Secrets never cross this port.
type CredentialDirectory interface {
	CredentialNames(ctx context.Context) ([]string, error)
}

package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations that touch
// secrets when SPACEPORT_INDEXER_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SPACEPORT_INDEXER_SECRET_KEY")

// ErrCredentialNotFound indicates no credential exists under the given name.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore defines the driven port for encrypted credential persistence.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Save stores or replaces the credential with the same name. Returns
	// ErrEncryptionKeyNotSet if the adapter was constructed without a key.
	Save(ctx context.Context, cred model.Credential) (*model.Credential, error)

	// Get retrieves the credential by name with decrypted secrets.
	// Returns ErrCredentialNotFound when the name is unknown.
	Get(ctx context.Context, name string) (*model.Credential, error)

	// List returns all credentials without their secrets. It works without a key.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the credential with the given name.
	Delete(ctx context.Context, name string) error
}

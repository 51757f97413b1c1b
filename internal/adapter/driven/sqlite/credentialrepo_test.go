package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestCredentialRepo_SaveAndGet(t *testing.T) {
	repo := NewCredentialRepo(setupTestDB(t), testKey)
	ctx := context.Background()

	saved, err := repo.Save(ctx, model.Credential{Name: "deploy-bot", Username: "bot", Token: "ghp_abc123"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "deploy-bot")
	require.NoError(t, err)
	assert.Equal(t, "bot", got.Username)
	assert.Equal(t, "ghp_abc123", got.Token)
	assert.Empty(t, got.Password)
}

func TestCredentialRepo_SecretsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	_, err := repo.Save(ctx, model.Credential{Name: "ci", Username: "ci", Password: "hunter2"})
	require.NoError(t, err)

	var stored string
	err = db.Reader.QueryRowContext(ctx, `SELECT password FROM credentials WHERE name = ?`, "ci").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "hunter2")
}

func TestCredentialRepo_SaveReplacesSecrets(t *testing.T) {
	repo := NewCredentialRepo(setupTestDB(t), testKey)
	ctx := context.Background()

	first, err := repo.Save(ctx, model.Credential{Name: "ci", Username: "old", Password: "old-pass"})
	require.NoError(t, err)

	second, err := repo.Save(ctx, model.Credential{Name: "ci", Username: "new", Token: "new-token"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, "ci")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Username)
	assert.Equal(t, "new-token", got.Token)
	assert.Empty(t, got.Password)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	repo := NewCredentialRepo(setupTestDB(t), testKey)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestCredentialRepo_ListWithoutSecrets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	writer := NewCredentialRepo(db, testKey)
	_, err := writer.Save(ctx, model.Credential{Name: "zeta", Username: "z", Token: "t"})
	require.NoError(t, err)
	_, err = writer.Save(ctx, model.Credential{Name: "alpha", Username: "a", Password: "p"})
	require.NoError(t, err)

	// Listing works without a key.
	creds, err := NewCredentialRepo(db, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "alpha", creds[0].Name)
	assert.Equal(t, "zeta", creds[1].Name)
	for _, c := range creds {
		assert.False(t, c.HasSecret())
	}
}

func TestCredentialRepo_Delete(t *testing.T) {
	repo := NewCredentialRepo(setupTestDB(t), testKey)
	ctx := context.Background()

	_, err := repo.Save(ctx, model.Credential{Name: "ci", Username: "ci", Token: "t"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "ci"))
	assert.ErrorIs(t, repo.Delete(ctx, "ci"), driven.ErrCredentialNotFound)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	repo := NewCredentialRepo(setupTestDB(t), nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, model.Credential{Name: "ci", Username: "ci", Token: "t"})
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "ci")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := NewCredentialRepo(db, testKey).Save(ctx, model.Credential{Name: "ci", Username: "ci", Token: "t"})
	require.NoError(t, err)

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err = NewCredentialRepo(db, other).Get(ctx, "ci")
	assert.Error(t, err)
}

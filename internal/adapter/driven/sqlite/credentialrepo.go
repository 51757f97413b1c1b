package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Passwords and tokens are encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable secret storage (Save and Get return ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key, now: time.Now}
}

// Save stores the credential, replacing the secrets of an existing credential
// with the same name. The existing id and creation time are kept.
func (r *CredentialRepo) Save(ctx context.Context, cred model.Credential) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	password, err := r.encryptOptional(cred.Password)
	if err != nil {
		return nil, err
	}
	token, err := r.encryptOptional(cred.Token)
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO credentials (id, name, username, password, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			token = excluded.token`

	now := r.now().UTC()
	_, err = r.db.Writer.ExecContext(ctx, query,
		uuid.NewString(), cred.Name, cred.Username, password, token, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("save credential %q: %w", cred.Name, err)
	}

	saved, err := r.get(ctx, r.db.Writer, cred.Name)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Get retrieves the credential by name with its secrets decrypted.
func (r *CredentialRepo) Get(ctx context.Context, name string) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	return r.get(ctx, r.db.Reader, name)
}

func (r *CredentialRepo) get(ctx context.Context, conn *sql.DB, name string) (*model.Credential, error) {
	const query = `SELECT id, name, username, password, token, created_at FROM credentials WHERE name = ?`

	var cred model.Credential
	var password, token sql.NullString
	var createdAt string
	err := conn.QueryRowContext(ctx, query, name).Scan(
		&cred.ID, &cred.Name, &cred.Username, &password, &token, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential %q: %w", name, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", name, err)
	}

	if cred.Password, err = r.decryptOptional(password); err != nil {
		return nil, fmt.Errorf("decrypt password for %q: %w", name, err)
	}
	if cred.Token, err = r.decryptOptional(token); err != nil {
		return nil, fmt.Errorf("decrypt token for %q: %w", name, err)
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for credential %q: %w", name, err)
	}

	return &cred, nil
}

// List returns all stored credentials ordered by name. Secrets are never read.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	const query = `SELECT id, name, username, created_at FROM credentials ORDER BY name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		var cred model.Credential
		var createdAt string
		if err := rows.Scan(&cred.ID, &cred.Name, &cred.Username, &createdAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		cred.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for credential %q: %w", cred.Name, err)
		}

		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Delete removes the credential with the given name. Returns
// ErrCredentialNotFound if it does not exist.
func (r *CredentialRepo) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM credentials WHERE name = ?`
	result, err := r.db.Writer.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete credential %q: %w", name, driven.ErrCredentialNotFound)
	}
	return nil
}

func (r *CredentialRepo) encryptOptional(plaintext string) (sql.NullString, error) {
	if plaintext == "" {
		return sql.NullString{}, nil
	}
	encrypted, err := r.encrypt(plaintext)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: encrypted, Valid: true}, nil
}

func (r *CredentialRepo) decryptOptional(encoded sql.NullString) (string, error) {
	if !encoded.Valid || encoded.String == "" {
		return "", nil
	}
	return r.decrypt(encoded.String)
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *CredentialRepo) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

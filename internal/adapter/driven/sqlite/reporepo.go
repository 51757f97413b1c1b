package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

const repoColumns = `id, name, url, branch, compose_folder, credentials_name, indexed_at, updated_at`

// RepoRepo is the SQLite implementation of the RepoStore port interface.
type RepoRepo struct {
	db  *DB
	now func() time.Time
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db, now: time.Now}
}

// Create inserts a new repository under a fresh id. Both timestamps are set
// to the insertion time. Returns ErrRepoAlreadyExists if the (url, name) pair
// is taken.
func (r *RepoRepo) Create(ctx context.Context, repo model.Repository) (*model.Repository, error) {
	const query = `INSERT INTO repositories (` + repoColumns + `, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.now().UTC()
	repo.ID = uuid.NewString()
	repo.IndexedAt = &now
	repo.UpdatedAt = &now
	if repo.Branch == "" {
		repo.Branch = model.DefaultBranch
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		repo.ID, repo.Name, repo.URL, repo.Branch,
		nullString(repo.ComposeFolder), nullString(repo.CredentialsName),
		formatTime(now), formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create repository %s: %w", repo.Name, driven.ErrRepoAlreadyExists)
		}
		return nil, fmt.Errorf("create repository %s: %w", repo.Name, err)
	}

	return &repo, nil
}

// Update replaces the editable fields of the repository with repo.ID and bumps
// updated_at. Returns ErrRepoNotFound if no such repository exists.
func (r *RepoRepo) Update(ctx context.Context, repo model.Repository) (*model.Repository, error) {
	const query = `UPDATE repositories
		SET name = ?, url = ?, branch = ?, compose_folder = ?, credentials_name = ?, updated_at = ?
		WHERE id = ?`

	if repo.Branch == "" {
		repo.Branch = model.DefaultBranch
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		repo.Name, repo.URL, repo.Branch,
		nullString(repo.ComposeFolder), nullString(repo.CredentialsName),
		formatTime(r.now().UTC()), repo.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update repository %s: %w", repo.ID, driven.ErrRepoAlreadyExists)
		}
		return nil, fmt.Errorf("update repository %s: %w", repo.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("update repository %s: %w", repo.ID, driven.ErrRepoNotFound)
	}

	return r.get(ctx, r.db.Writer, repo.ID)
}

// Delete removes a repository by id. Returns ErrRepoNotFound if the repository
// does not exist.
func (r *RepoRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM repositories WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete repository %s: %w", id, driven.ErrRepoNotFound)
	}

	return nil
}

// Get retrieves a repository by id. Returns ErrRepoNotFound if it does not exist.
func (r *RepoRepo) Get(ctx context.Context, id string) (*model.Repository, error) {
	return r.get(ctx, r.db.Reader, id)
}

func (r *RepoRepo) get(ctx context.Context, conn *sql.DB, id string) (*model.Repository, error) {
	const query = `SELECT ` + repoColumns + ` FROM repositories WHERE id = ?`

	repo, err := scanRepository(conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get repository %s: %w", id, driven.ErrRepoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %s: %w", id, err)
	}

	return repo, nil
}

// MarkIndexed sets indexed_at and updated_at to at. Returns ErrRepoNotFound
// if the repository does not exist.
func (r *RepoRepo) MarkIndexed(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE repositories SET indexed_at = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark repository %s indexed: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark repository %s indexed: %w", id, driven.ErrRepoNotFound)
	}

	return nil
}

// List returns all repositories, oldest first.
func (r *RepoRepo) List(ctx context.Context) ([]model.Repository, error) {
	const query = `SELECT ` + repoColumns + ` FROM repositories ORDER BY created_at, rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	repos := []model.Repository{}
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(s scanner) (*model.Repository, error) {
	var repo model.Repository
	var composeFolder, credentialsName, indexedAt sql.NullString
	var updatedAt string

	err := s.Scan(&repo.ID, &repo.Name, &repo.URL, &repo.Branch, &composeFolder, &credentialsName, &indexedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if composeFolder.Valid {
		repo.ComposeFolder = &composeFolder.String
	}
	if credentialsName.Valid {
		repo.CredentialsName = &credentialsName.String
	}

	if indexedAt.Valid {
		t, err := parseTime(indexedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse indexed_at: %w", err)
		}
		repo.IndexedAt = &t
	}

	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	repo.UpdatedAt = &t

	return &repo, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

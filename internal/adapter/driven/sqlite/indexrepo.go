package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IndexStore = (*IndexRepo)(nil)

const indexColumns = `repo_id, compose_path, content, indexed_at, updated_at`

// IndexRepo is the SQLite implementation of the IndexStore port interface.
type IndexRepo struct {
	db  *DB
	now func() time.Time
}

// NewIndexRepo creates a new IndexRepo backed by the given DB.
func NewIndexRepo(db *DB) *IndexRepo {
	return &IndexRepo{db: db, now: time.Now}
}

// Put writes the entry for entry.RepoID. A new entry gets both timestamps set
// to now; a replaced entry keeps indexed_at and bumps updated_at. The
// repository must exist.
func (r *IndexRepo) Put(ctx context.Context, entry model.IndexEntry) (*model.IndexEntry, error) {
	const query = `INSERT INTO index_entries (` + indexColumns + `) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (repo_id) DO UPDATE SET
			compose_path = excluded.compose_path,
			content = excluded.content,
			updated_at = excluded.updated_at`

	now := formatTime(r.now())
	_, err := r.db.Writer.ExecContext(ctx, query, entry.RepoID, entry.ComposePath, entry.Content, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("put index entry %s: %w", entry.RepoID, driven.ErrRepoNotFound)
		}
		return nil, fmt.Errorf("put index entry %s: %w", entry.RepoID, err)
	}

	return r.get(ctx, r.db.Writer, entry.RepoID)
}

// Get retrieves the entry for repoID. Returns ErrIndexEntryNotFound if the
// repository has not been indexed.
func (r *IndexRepo) Get(ctx context.Context, repoID string) (*model.IndexEntry, error) {
	return r.get(ctx, r.db.Reader, repoID)
}

func (r *IndexRepo) get(ctx context.Context, conn *sql.DB, repoID string) (*model.IndexEntry, error) {
	const query = `SELECT ` + indexColumns + ` FROM index_entries WHERE repo_id = ?`

	entry, err := scanIndexEntry(conn.QueryRowContext(ctx, query, repoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get index entry %s: %w", repoID, driven.ErrIndexEntryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get index entry %s: %w", repoID, err)
	}

	return entry, nil
}

// List returns every index entry, most recently indexed first.
func (r *IndexRepo) List(ctx context.Context) ([]model.IndexEntry, error) {
	const query = `SELECT ` + indexColumns + ` FROM index_entries ORDER BY indexed_at DESC, repo_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list index entries: %w", err)
	}
	defer rows.Close()

	entries := []model.IndexEntry{}
	for rows.Next() {
		entry, err := scanIndexEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan index entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index entries: %w", err)
	}

	return entries, nil
}

func scanIndexEntry(s scanner) (*model.IndexEntry, error) {
	var entry model.IndexEntry
	var indexedAt, updatedAt string

	if err := s.Scan(&entry.RepoID, &entry.ComposePath, &entry.Content, &indexedAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if entry.IndexedAt, err = parseTime(indexedAt); err != nil {
		return nil, fmt.Errorf("parse indexed_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &entry, nil
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint")
}

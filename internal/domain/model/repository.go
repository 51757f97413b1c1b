package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBranch is used whenever a record or draft carries no branch.
const DefaultBranch = "main"

// Repository is one registered source repository and its indexing metadata.
// ID is assigned by the indexer and never changes afterwards.
type Repository struct {
	ID              string
	Name            string
	URL             string
	Branch          string
	ComposeFolder   *string
	CredentialsName *string
	IndexedAt       *time.Time
	UpdatedAt       *time.Time

	// Returned lists the fields an indexer response carried, null or not.
	// Records built locally leave it empty.
	Returned FieldSet
}

// Field identifies one attribute of a Repository.
type Field uint8

const (
	FieldName Field = 1 << iota
	FieldURL
	FieldBranch
	FieldComposeFolder
	FieldCredentialsName
	FieldIndexedAt
	FieldUpdatedAt
)

// FieldSet is a set of Fields.
type FieldSet uint8

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

// With returns the set extended by f.
func (s FieldSet) With(f Field) FieldSet {
	return s | FieldSet(f)
}

// Draft holds the user-editable fields of a Repository as plain strings, the
// way they are bound to a form. Empty optional fields mean "unset".
type Draft struct {
	Name            string
	URL             string
	Branch          string
	ComposeFolder   string
	CredentialsName string
}

// NewDraft returns the blank draft offered by the new-row form.
func NewDraft() Draft {
	return Draft{Branch: DefaultBranch}
}

// DraftFrom seeds a draft from the current values of a record.
func DraftFrom(r Repository) Draft {
	branch := r.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	return Draft{
		Name:            r.Name,
		URL:             r.URL,
		Branch:          branch,
		ComposeFolder:   deref(r.ComposeFolder),
		CredentialsName: deref(r.CredentialsName),
	}
}

// Validate runs ValidateDraft over the validated fields of d.
func (d Draft) Validate() Validation {
	return ValidateDraft(d.Name, d.URL, d.Branch)
}

// Apply copies the draft's fields onto r. ID and timestamps are left alone.
func (d Draft) Apply(r Repository) Repository {
	r.Name = d.Name
	r.URL = d.URL
	r.Branch = d.Branch
	r.ComposeFolder = optional(d.ComposeFolder)
	r.CredentialsName = optional(d.CredentialsName)
	return r
}

// Placeholder builds a local record for a draft the indexer accepted without
// returning an id. The id is temporary and only unique within this process.
func Placeholder(d Draft, now time.Time) Repository {
	updated := now.UTC()
	return d.Apply(Repository{
		ID:        fmt.Sprintf("r%d", now.UnixMilli()),
		UpdatedAt: &updated,
	})
}

// Merge overlays the fields the indexer returned onto r. A field wins when
// the server sent it, including an explicit null, or when it is set. Fields
// the server left out keep the local value. The ID of r is immutable.
func (r Repository) Merge(server Repository) Repository {
	sent := func(f Field, set bool) bool {
		return set || server.Returned.Has(f)
	}

	if sent(FieldName, server.Name != "") {
		r.Name = server.Name
	}
	if sent(FieldURL, server.URL != "") {
		r.URL = server.URL
	}
	if sent(FieldBranch, server.Branch != "") {
		r.Branch = server.Branch
	}
	if sent(FieldComposeFolder, server.ComposeFolder != nil) {
		r.ComposeFolder = server.ComposeFolder
	}
	if sent(FieldCredentialsName, server.CredentialsName != nil) {
		r.CredentialsName = server.CredentialsName
	}
	if sent(FieldIndexedAt, server.IndexedAt != nil) {
		r.IndexedAt = server.IndexedAt
	}
	if sent(FieldUpdatedAt, server.UpdatedAt != nil) {
		r.UpdatedAt = server.UpdatedAt
	}
	return r
}

// DeletePrompt is the confirmation question shown before a record is deleted.
func (r Repository) DeletePrompt() string {
	return fmt.Sprintf("Are you sure you want to delete the repository %q? This action cannot be undone.", r.Name)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
